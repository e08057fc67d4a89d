package model

// Pipeline is a configured build unit bound to one source control resource.
// SCMURI is the opaque locator used when asking the SCM what a user may do
// with that resource.
type Pipeline struct {
	ID         uint64 // pipelines.id
	Name       string // pipelines.name (e.g. org/repo)
	SCMURI     string // pipelines.scm_uri
	SCMContext string // pipelines.scm_context
}
