package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	xhttp "Lenxys/pkg/http"
)

const defaultRemoteTimeout = 3 * time.Second

// RemoteLoader resolves model handles served by the model service over HTTP.
//
//	GET  {base}/models/{id}          -> 200 when the model exists, 404 otherwise
//	POST {base}/models/{id}/predict  {"features": {...}} -> {"prediction": x}
type RemoteLoader struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

// NewRemoteLoader builds a loader for baseURL. A non-positive timeout uses 3s.
func NewRemoteLoader(baseURL string, timeout time.Duration, attempts int) *RemoteLoader {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	if attempts < 1 {
		attempts = 1
	}
	return &RemoteLoader{
		baseURL:  baseURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: attempts,
	}
}

type remoteModelInfo struct {
	ModelID string `json:"model_id"`
}

// Load checks that the model exists remotely and returns a handle for it.
func (l *RemoteLoader) Load(ctx context.Context, modelID string) (domrepo.ModelHandle, error) {
	if l.baseURL == "" {
		return nil, fmt.Errorf("model service url not configured")
	}
	var info remoteModelInfo
	err := l.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    l.modelURL(modelID),
	}, &info)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: remote %s", domsvc.ErrArtifactNotFound, modelID)
		}
		return nil, fmt.Errorf("lookup model %s: %w", modelID, err)
	}
	return &remoteHandle{loader: l, modelID: modelID}, nil
}

func (l *RemoteLoader) modelURL(modelID string) string {
	return l.baseURL + "/models/" + url.PathEscape(modelID)
}

// postJSON posts payload with up to l.attempts tries and a linear backoff.
func (l *RemoteLoader) postJSON(ctx context.Context, u string, payload, dest interface{}) error {
	var err error
	for i := 1; i <= l.attempts; i++ {
		err = l.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:  xhttp.MethodPost,
			URL:     u,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    payload,
		}, dest)
		if err == nil {
			return nil
		}
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code < http.StatusInternalServerError {
			return err
		}
		if i == l.attempts {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

type remoteHandle struct {
	loader  *RemoteLoader
	modelID string
}

type predictRequest struct {
	Features map[string]float64 `json:"features"`
}

type predictResponse struct {
	Prediction *float64 `json:"prediction"`
}

func (h *remoteHandle) Predict(ctx context.Context, row map[string]float64) (float64, error) {
	var resp predictResponse
	if err := h.loader.postJSON(ctx, h.loader.modelURL(h.modelID)+"/predict", predictRequest{Features: row}, &resp); err != nil {
		return 0, fmt.Errorf("remote predict %s: %w", h.modelID, err)
	}
	if resp.Prediction == nil {
		return 0, fmt.Errorf("remote predict %s: empty prediction", h.modelID)
	}
	return *resp.Prediction, nil
}

// ChainLoader tries loaders in order, moving on only when an artifact is missing.
type ChainLoader []domrepo.ModelLoader

// Load returns the first handle found.
func (c ChainLoader) Load(ctx context.Context, modelID string) (domrepo.ModelHandle, error) {
	for _, l := range c {
		h, err := l.Load(ctx, modelID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, domsvc.ErrArtifactNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", domsvc.ErrArtifactNotFound, modelID)
}

var (
	_ domrepo.ModelLoader = (*RemoteLoader)(nil)
	_ domrepo.ModelLoader = ChainLoader(nil)
)
