package assurance

// sourceProfile is what a document's source discriminator (e.g. "soc2",
// "prowler", "generic") implies about assurance method, ceiling, and
// coarse provenance.
type sourceProfile struct {
	method  Method
	ceiling Level
	kind    ProvenanceSource
}

// sourceProfiles classifies the known IngestedDocument.source
// discriminators (§3's "soc2, prowler, security-hub, inspec, trivy,
// gitlab, generic" examples). An auditor-sourced document's ceiling is
// raised to L4 only once the observation period is judged sufficient
// (see resolveCeiling), matching §4.3's "auditor: L3 or L4 when
// observation period is sufficient".
var sourceProfiles = map[string]sourceProfile{
	"generic":       {MethodSelfAssessed, LevelConfigured, SourceSelf},
	"prowler":       {MethodToolAttested, LevelDemonstrated, SourceTool},
	"security-hub":  {MethodToolAttested, LevelDemonstrated, SourceTool},
	"inspec":        {MethodToolAttested, LevelDemonstrated, SourceTool},
	"trivy":         {MethodToolAttested, LevelDemonstrated, SourceTool},
	"gitlab":        {MethodToolAttested, LevelDemonstrated, SourceTool},
	"soc2":          {MethodAuditorAttested, LevelObserved, SourceAuditor},
	"auditor-report": {MethodAuditorAttested, LevelObserved, SourceAuditor},
}

// defaultSourceProfile is applied to any source discriminator this
// calculator wasn't told about, giving it the most conservative ceiling
// rather than rejecting the input outright.
var defaultSourceProfile = sourceProfile{MethodSelfAssessed, LevelDocumented, SourceSelf}

func lookupSourceProfile(source string) sourceProfile {
	if p, ok := sourceProfiles[source]; ok {
		return p
	}
	return defaultSourceProfile
}

// resolveCeiling raises an auditor-attested ceiling from L3 to L4 when
// the observation period is sufficient (§4.3).
func resolveCeiling(p sourceProfile, obsSufficient bool) Level {
	if p.method == MethodAuditorAttested && obsSufficient {
		return LevelAttested
	}
	return p.ceiling
}
