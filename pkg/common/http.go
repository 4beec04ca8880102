package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

const (
	ContentTypeNone   = ""
	ContentTypeBinary = "application/octet-stream"
	ContentTypeJSON   = "application/json"
)

// A long-lived http client shared by all registry and download requests.
// The bearer credential can be changed at any time and applies to requests issued afterwards.
type HttpClient struct {
	client    *http.Client
	userAgent string
	mutex     sync.RWMutex
	token     string
}

func NewHttpClient(timeout time.Duration, userAgent string) *HttpClient {
	if timeout <= 0 {
		timeout = DEFAULT_HTTP_TIMEOUT
	}
	return &HttpClient{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Gets the underlying http client.
func (h *HttpClient) Client() *http.Client {
	return h.client
}

func (h *HttpClient) UserAgent() string {
	return h.userAgent
}

// Sets the bearer credential. An empty token removes the credential.
func (h *HttpClient) SetToken(token string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.token = token
}

func (h *HttpClient) Token() string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.token
}

func (h *HttpClient) AddBearerToRequest(request *http.Request, token string) {
	if len(token) > 0 {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
}

// Executes the request with the user agent and the current credential applied.
func (h *HttpClient) Do(request *http.Request) (*http.Response, error) {
	if h.userAgent != "" {
		request.Header.Set("User-Agent", h.userAgent)
	}
	h.AddBearerToRequest(request, h.Token())
	return h.client.Do(request)
}

// Gets the url and decodes the json body into the target. Returns the status code of the response.
// The body is only decoded for successful responses.
func (h *HttpClient) GetJson(ctx context.Context, url string, target any) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	request.Header.Set("Accept", ContentTypeJSON)
	response, err := h.Do(request)
	if err != nil {
		return 0, fmt.Errorf("request to '%s' failed: %w", url, err)
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response.StatusCode, nil
	}
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return response.StatusCode, fmt.Errorf("failed parsing response from '%s': %w", url, err)
	}
	return response.StatusCode, nil
}

// Streams the content of the url into the target file. The file is removed if the download fails.
func (h *HttpClient) DownloadToFile(ctx context.Context, url string, targetPath string) (retErr error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", ContentTypeBinary)
	response, err := h.Do(request)
	if err != nil {
		return fmt.Errorf("%w: request to '%s' failed: %w", ErrDownload, url, err)
	}
	defer response.Body.Close()
	if response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: failed to download '%s' (status code: %d)", ErrCredential, url, response.StatusCode)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%w: failed to download '%s' (status code: %d)", ErrDownload, url, response.StatusCode)
	}

	targetFile, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed creating file '%s': %w", targetPath, err)
	}
	defer func() {
		if err := targetFile.Close(); err != nil && retErr == nil {
			retErr = err
		}
		if retErr != nil {
			os.Remove(targetPath)
		}
	}()
	if _, err := io.Copy(targetFile, response.Body); err != nil {
		return fmt.Errorf("%w: failed reading '%s': %w", ErrDownload, url, err)
	}
	return nil
}
