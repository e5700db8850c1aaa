package mapping

// newGenericMapping returns the always-present fallback mapping used when
// no loaded mapping matches an input. It makes no assumptions about input
// shape beyond the ingestion package's own field names: it expects the
// input to already look roughly like an IngestedDocument, and passes
// metadata and controls through by identity path.
func newGenericMapping() *Mapping {
	return &Mapping{
		ID:       GenericSourceID,
		Name:     "Generic passthrough",
		Source:   GenericSourceID,
		Priority: 0,
		Match:    Match{},
		Metadata: MetadataSpec{
			"title":  "*metadata.title",
			"issuer": "*metadata.issuer",
			"date":   "*metadata.date",
			"scope":  "*metadata.scope",
		},
		Controls: &ControlsSpec{
			Path:            "controls",
			IDPath:          "id",
			DescriptionPath: "description",
			StatusPath:      "status",
			SeverityPath:    "severity",
			EvidencePath:    "evidence",
			FrameworkRefs: &FrameworkRefsSpec{
				Path:            "frameworkRefs",
				FrameworkPath:   "framework",
				ControlIDPath:   "controlId",
				ControlNamePath: "controlName",
			},
		},
		filename: "\xff_generic", // never sorted: the registry holds the generic mapping apart
	}
}
