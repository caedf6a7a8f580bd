package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
)

const maxPayloadBytes = 1 << 20

var ErrUnexpectedStatus = errors.New("unexpected metrics status")

type HTTPFetcher struct {
	URL        string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

var _ ports.MetricsFetcher = (*HTTPFetcher)(nil)

func (f *HTTPFetcher) Fetch(ctx context.Context) (domain.Reading, error) {
	if strings.TrimSpace(f.URL) == "" {
		return domain.Reading{}, errors.New("metrics url is empty")
	}

	requestCtx, cancel := f.requestContext(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(requestCtx, http.MethodGet, f.URL, nil)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("create request: %w", err)
	}
	if f.Token != "" {
		request.Header.Set("Authorization", "Bearer "+f.Token)
	}
	if f.UserAgent != "" {
		request.Header.Set("User-Agent", f.UserAgent)
	}
	request.Header.Set("Accept", "application/json")

	response, err := f.httpClient().Do(request)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("perform request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxPayloadBytes))
		return domain.Reading{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxPayloadBytes))
	if err != nil {
		return domain.Reading{}, fmt.Errorf("read response: %w", err)
	}

	return DecodeReading(body)
}

func (f *HTTPFetcher) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.Timeout)
}

func (f *HTTPFetcher) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}
