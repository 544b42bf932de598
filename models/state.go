package models

// UploadState gates the query operation.
type UploadState int

const (
	NotUploaded UploadState = iota
	Uploaded
)

func (s UploadState) String() string {
	if s == Uploaded {
		return "uploaded"
	}
	return "not_uploaded"
}

// MarshalText lets the state appear as a string in JSON snapshots.
func (s UploadState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusLevel colors the status message.
type StatusLevel string

const (
	StatusNone    StatusLevel = ""
	StatusInfo    StatusLevel = "info"
	StatusSuccess StatusLevel = "success"
	StatusError   StatusLevel = "error"
)
