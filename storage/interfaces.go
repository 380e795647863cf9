package storage

// ArtifactWriter is the interface any artifact backend must satisfy.
// id scopes the files of one report.
type ArtifactWriter interface {
	Save(id, name string, data []byte) error
}

// DebugSink receives intermediate pipeline data for inspection.
type DebugSink interface {
	Dump(id, name string, v any) error
}
