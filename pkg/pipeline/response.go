package pipeline

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

// Response is the value a pipeline produces. It is handed back verbatim to
// the transport layer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}

// Clone returns a deep copy.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	return &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   append([]byte(nil), r.Body...),
	}
}

// SetHeader sets a header and returns the response for chaining.
func (r *Response) SetHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// Send writes the response to w.
func (r *Response) Send(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range r.Header {
		h[k] = v
	}
	if len(r.Body) > 0 && h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// JSON creates a JSON response.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	res := NewResponse(status)
	res.Header.Set("Content-Type", "application/json")
	res.Body = body
	return res, nil
}

// Text creates a plain text response.
func Text(status int, s string) *Response {
	res := NewResponse(status)
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	res.Body = []byte(s)
	return res
}

// HTML creates an HTML response.
func HTML(status int, s string) *Response {
	res := NewResponse(status)
	res.Header.Set("Content-Type", "text/html; charset=utf-8")
	res.Body = []byte(s)
	return res
}

// Redirect creates a redirect response.
func Redirect(url string, code int) *Response {
	res := NewResponse(code)
	res.Header.Set("Location", url)
	return res
}

// NotFound is the default not-found handler: a bare 404.
func NotFound(c *Ctx) (*Response, error) {
	return NewResponse(http.StatusNotFound), nil
}
