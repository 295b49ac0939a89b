package store

// SampleStatus is the workflow state of a sample. The import driver
// only performs Importing→New and Importing→Error; the remaining
// transitions belong to the surrounding application and go through
// CompareAndSetStatus.
type SampleStatus int

const (
	StatusError       SampleStatus = -1
	StatusImporting   SampleStatus = 0
	StatusNew         SampleStatus = 1
	StatusProcessing  SampleStatus = 2
	StatusInterpreted SampleStatus = 3
	StatusValidated   SampleStatus = 4
)

func (s SampleStatus) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusImporting:
		return "importing"
	case StatusNew:
		return "new"
	case StatusProcessing:
		return "processing"
	case StatusInterpreted:
		return "interpreted"
	case StatusValidated:
		return "validated"
	}
	return "unknown"
}
