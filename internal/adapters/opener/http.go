package opener

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

type HTTPOpener struct {
	Client *http.Client
	log    logrus.FieldLogger
}

func NewHTTPOpener(cli *http.Client, log logrus.FieldLogger) *HTTPOpener {
	if cli == nil {
		cli = &http.Client{}
	}
	return &HTTPOpener{Client: cli, log: log}
}

func (h *HTTPOpener) Open(ctx context.Context, url string) (io.ReadCloser, ports.Meta, error) {
	lg := h.log.WithField("url", url)
	lg.Debug("[OPENER][HTTP][START]")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		lg.WithError(err).Error("[OPENER][HTTP][ERR] build request")
		return nil, ports.Meta{}, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		lg.WithError(err).Error("[OPENER][HTTP][ERR] do request")
		return nil, ports.Meta{}, err
	}
	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		lg.WithFields(logrus.Fields{"status": resp.StatusCode, "content_type": ct}).Error("[OPENER][HTTP][ERR]")
		return nil, ports.Meta{}, fmt.Errorf("http status %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size < 0 {
		size = -1
	}
	lg.WithFields(logrus.Fields{"content_type": ct, "size": size}).Info("[OPENER][HTTP][OK]")
	return resp.Body, ports.Meta{
		Source:      "https",
		ContentType: ct,
		Size:        size,
	}, nil
}
