package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type syncResult struct {
	Score struct {
		State  string `json:"state"`
		Period int    `json:"period"`
		Detail string `json:"detail"`
		Stale  bool   `json:"stale"`
	} `json:"score"`
	Fed []struct {
		Quarter string `json:"quarter"`
		Score   struct {
			Home int `json:"home"`
			Away int `json:"away"`
		} `json:"score"`
	} `json:"fed"`
}

// watcher is the polling client for the squares auto-feed. The server does
// one feed pass per request; the loop lives here.
type watcher struct {
	server   string
	hostID   string
	code     string
	interval time.Duration
	once     bool
	out      io.Writer
	client   *http.Client
}

func (w *watcher) run(ctx context.Context) error {
	if w.client == nil {
		w.client = &http.Client{Timeout: 15 * time.Second}
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		res, err := w.sync(ctx)
		switch {
		case err != nil:
			fmt.Fprintf(w.out, "sync failed: %v\n", err)
		default:
			w.report(res)
			if res.Score.State == "post" && len(res.Fed) == 0 {
				fmt.Fprintln(w.out, "game over, all quarters recorded")
				return nil
			}
		}
		if w.once {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *watcher) sync(ctx context.Context) (syncResult, error) {
	endpoint := strings.TrimRight(w.server, "/") + "/api/party/" + url.PathEscape(w.code) + "/squares/sync"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return syncResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+w.hostID)

	resp, err := w.client.Do(req)
	if err != nil {
		return syncResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return syncResult{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}

	var res syncResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return syncResult{}, fmt.Errorf("decoding response: %w", err)
	}
	return res, nil
}

func (w *watcher) report(res syncResult) {
	stale := ""
	if res.Score.Stale {
		stale = " (stale)"
	}
	fmt.Fprintf(w.out, "%s period %d %s%s\n", res.Score.State, res.Score.Period, res.Score.Detail, stale)
	for _, f := range res.Fed {
		fmt.Fprintf(w.out, "  recorded %s %d-%d\n", f.Quarter, f.Score.Home, f.Score.Away)
	}
}
