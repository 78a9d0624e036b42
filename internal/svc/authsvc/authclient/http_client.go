package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mfeller/gameauth/internal/domain"
	context_ "github.com/mfeller/gameauth/internal/infra/context"
	"github.com/mfeller/gameauth/internal/infra/logging"
)

const (
	TraceIDHeader = "X-Request-ID"

	formContentType = "application/x-www-form-urlencoded"
)

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// BackendURL is the base URL of the authentication backend
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:5000"`

	// Version is the client build tag reported on login
	Version string `env:"VERSION" envDefault:""`
}

// HTTPClient implements AuthClient by posting form-encoded requests to the
// backend and decoding its JSON payloads.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.http_client"),
		cfg:        cfg,
	}
}

// Register implements AuthClient.Register.
func (hc *HTTPClient) Register(
	ctx context.Context,
	username, password, passwordRepeat, project string,
) (*domain.RegisterResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("passwordrepeat", passwordRepeat)
	form.Set("project", project)

	var resp domain.RegisterResponse
	if err := hc.postForm(ctx, "/register", form, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Login implements AuthClient.Login. The configured client version tag is
// reported alongside the credentials.
func (hc *HTTPClient) Login(
	ctx context.Context,
	username, password, project string,
) (*domain.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("project", project)
	form.Set("version", hc.cfg.Version)

	var resp domain.LoginResponse
	if err := hc.postForm(ctx, "/login", form, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Save implements AuthClient.Save.
func (hc *HTTPClient) Save(
	ctx context.Context,
	id, session string,
	data json.RawMessage,
) (*domain.SaveResponse, error) {
	form := url.Values{}
	form.Set("id", id)
	form.Set("session", session)
	form.Set("data", string(data))

	var resp domain.SaveResponse
	if err := hc.postForm(ctx, "/save", form, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (hc *HTTPClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := strings.TrimSuffix(hc.cfg.BackendURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", formContentType)

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		hc.log.WarnContext(ctx, "backend returned non-OK status",
			logging.Group("http", "path", path, "status", resp.StatusCode))

		return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
