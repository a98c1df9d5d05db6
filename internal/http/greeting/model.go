package greeting

// ContentType is sent with every greeting.
const ContentType = "text/plain; charset=utf-8"

// GetOutput is the raw plain-text greeting. Huma writes []byte bodies verbatim.
type GetOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
