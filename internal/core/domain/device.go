package domain

// DeviceInfo is the small broadcast record peers periodically re-announce.
// The protocol core does not consume it beyond keeping it out of the image
// path; it exists so the UI can label the roster.
type DeviceInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Model         string `json:"model"`
	SystemVersion string `json:"systemVersion"`
}
