package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/meridian-social/aegis/moderation"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// RemoteClassifier fronts an external scoring API for images (and optionally
// text). Requests are rate limited and retried; the caller bounds the whole
// call with its context, and the engine maps any failure to a pending result
// so a degraded classifier never silently approves content.
type RemoteClassifier struct {
	Client   *http.Client
	Host     string
	APIToken string
	Limiter  *rate.Limiter
}

func NewRemoteClassifier(host, token string, ratelimit int) *RemoteClassifier {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil
	client := retryClient.StandardClient()
	client.Timeout = 15 * time.Second
	return &RemoteClassifier{
		Client:   client,
		Host:     host,
		APIToken: token,
		Limiter:  rate.NewLimiter(rate.Limit(ratelimit), ratelimit),
	}
}

var _ Classifier = (*RemoteClassifier)(nil)

// Response schema of the scoring API.
type scoreResp struct {
	Classes []scoreRespClass `json:"classes"`
	PII     []scoreRespPII   `json:"pii"`
}

type scoreRespClass struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

type scoreRespPII struct {
	Type  string    `json:"type"`
	Score float64   `json:"score"`
	Box   *scoreBox `json:"box,omitempty"`
}

type scoreBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// class names the scoring API emits, mapped to the violation taxonomy
var classFlags = map[string]moderation.ViolationFlag{
	"hate":          moderation.FlagHateSpeech,
	"harassment":    moderation.FlagHarassment,
	"violence":      moderation.FlagViolentContent,
	"gore":          moderation.FlagViolentContent,
	"sexual":        moderation.FlagSexualContent,
	"nudity":        moderation.FlagSexualContent,
	"spam":          moderation.FlagSpam,
	"misleading":    moderation.FlagMisinformation,
	"inappropriate": moderation.FlagInappropriateContent,
}

var piiTypes = map[string]moderation.PIIType{
	"phone":  moderation.PIIPhoneNumber,
	"email":  moderation.PIIEmailAddress,
	"handle": moderation.PIISocialHandle,
}

// minimum per-class score before a flag is emitted
const classScoreThreshold = 0.5

func (c *RemoteClassifier) Classify(ctx context.Context, input Input) (Output, error) {
	var outs []Output
	if input.Text != "" {
		out, err := c.scoreText(ctx, input.Text)
		if err != nil {
			return Output{}, err
		}
		outs = append(outs, out)
	}
	for _, img := range input.Images {
		out, err := c.scoreImage(ctx, img)
		if err != nil {
			return Output{}, err
		}
		outs = append(outs, out)
	}
	if len(outs) == 0 {
		return Output{Confidence: cleanConfidence}, nil
	}
	return Merge(outs...), nil
}

func (c *RemoteClassifier) scoreText(ctx context.Context, text string) (Output, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Output{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/v1/score/text", bytes.NewReader(body))
	if err != nil {
		return Output{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func (c *RemoteClassifier) scoreImage(ctx context.Context, img Image) (Output, error) {
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("media", img.ID)
	if err != nil {
		return Output{}, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return Output{}, err
	}
	if err := mw.Close(); err != nil {
		return Output{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/v1/score/image", buf)
	if err != nil {
		return Output{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(ctx, req)
}

func (c *RemoteClassifier) do(ctx context.Context, req *http.Request) (Output, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Output{}, err
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("User-Agent", "aegis/"+versioninfo.Short())

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		remoteRequestCount.WithLabelValues("error").Inc()
		return Output{}, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()
	remoteRequestDuration.Observe(time.Since(start).Seconds())
	remoteRequestCount.WithLabelValues(fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("scoring request failed status=%d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, err
	}
	var sr scoreResp
	if err := json.Unmarshal(raw, &sr); err != nil {
		return Output{}, fmt.Errorf("parsing scoring response: %w", err)
	}
	return summarize(sr), nil
}

// summarize reduces raw class scores to flags plus one overall confidence:
// the strongest matched class, or for clean media the complement of the
// strongest near-miss.
func summarize(sr scoreResp) Output {
	out := Output{}
	seen := make(map[moderation.ViolationFlag]bool)
	matched := 0.0
	nearMiss := 0.0
	for _, cls := range sr.Classes {
		f, ok := classFlags[cls.Class]
		if !ok {
			continue
		}
		if cls.Score >= classScoreThreshold {
			if !seen[f] {
				seen[f] = true
				out.Flags = append(out.Flags, f)
			}
			if cls.Score > matched {
				matched = cls.Score
			}
		} else if cls.Score > nearMiss {
			nearMiss = cls.Score
		}
	}
	if len(out.Flags) > 0 {
		out.Confidence = matched
	} else {
		out.Confidence = 1.0 - nearMiss
	}
	for _, p := range sr.PII {
		typ, ok := piiTypes[p.Type]
		if !ok {
			continue
		}
		occ := moderation.PIIOccurrence{Type: typ, Confidence: p.Score}
		if p.Box != nil {
			occ.Location = &moderation.BoundingBox{X: p.Box.X, Y: p.Box.Y, Width: p.Box.W, Height: p.Box.H}
		}
		out.PII = append(out.PII, occ)
	}
	return out
}
