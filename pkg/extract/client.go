package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/metersnap/metersnap/internal/httpc"
)

// Extractor sends an enhanced image to the vision boundary and returns
// the normalized record plus the model's raw text for diagnosis.
type Extractor interface {
	Extract(ctx context.Context, jpeg []byte) (Result, string, error)
}

// Client calls the single configured vision-extraction endpoint.
// Prompt text and model identity are that collaborator's concern, not
// this client's.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates an extraction client for the endpoint URL.
func NewClient(endpoint string) (*Client, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	return &Client{endpoint: endpoint, http: httpc.Client}, nil
}

// request is the wire shape of the extraction call. The image is plain
// base64, no data-URI prefix.
type request struct {
	ImageBase64 string `json:"imageBase64"`
}

// response is the wire shape of the extraction reply.
type response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Raw    string          `json:"raw"`
	Error  string          `json:"error"`
}

// Extract implements Extractor. Malformed response bodies degrade to the
// normalizer's safe default instead of surfacing as errors; only
// transport and explicit boundary failures return an error.
func (c *Client) Extract(ctx context.Context, jpeg []byte) (Result, string, error) {
	if len(jpeg) == 0 {
		return DefaultResult(""), "", ErrEmptyImage
	}

	body, err := json.Marshal(request{
		ImageBase64: base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		return DefaultResult(""), "", fmt.Errorf("extract: encode request: %w", err)
	}

	resp, err := httpc.PostJSON(ctx, c.endpoint, body)
	if err != nil {
		return DefaultResult(""), "", fmt.Errorf("extract: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return DefaultResult(""), "", fmt.Errorf("extract: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DefaultResult(""), "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(respBody), maxDiagnosticNotes),
		}
	}

	var reply response
	if err := json.Unmarshal(respBody, &reply); err != nil {
		// Non-JSON body from the boundary: absorb it the same way the
		// normalizer absorbs model prose.
		return Normalize(string(respBody)), string(respBody), nil
	}

	if !reply.OK {
		return DefaultResult(""), reply.Raw, fmt.Errorf("%w: %s", ErrExtractionFailed, reply.Error)
	}

	if len(reply.Result) > 0 && string(reply.Result) != "null" {
		return Normalize(string(reply.Result)), reply.Raw, nil
	}
	return Normalize(reply.Raw), reply.Raw, nil
}
