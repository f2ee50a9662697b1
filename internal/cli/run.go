package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/internal/config"
	"github.com/aretw0/adjuster/internal/presentation/tui"
	"github.com/aretw0/adjuster/pkg/domain"
)

// RunOptions carries the resolved inputs for the 'run' command. Flag and
// config merging happens in the command layer; this struct is the result.
type RunOptions struct {
	EvidencePath string
	JSON         bool
	Debug        bool
}

// sessionEnvelope tags the final session document in NDJSON output so
// consumers can tell it apart from the lifecycle events preceding it.
type sessionEnvelope struct {
	Type    string         `json:"type"`
	Session domain.Session `json:"session"`
}

// RunClaim executes a single claim end to end: load the evidence file,
// assemble the workflow from configuration, submit, and report the outcome.
// With opts.JSON the lifecycle is emitted as NDJSON events followed by a
// final session document; otherwise it renders a live transcript.
func RunClaim(cfg *config.Config, opts RunOptions) error {
	logger := createLogger(opts.Debug)

	evidence, err := LoadEvidence(opts.EvidencePath)
	if err != nil {
		return err
	}

	if !opts.JSON && term.IsTerminal(int(os.Stdout.Fd())) {
		tui.PrintBanner()
	}

	var hooks domain.LifecycleHooks
	var render func(string) (string, error)
	if opts.JSON {
		hooks = jsonHooks(json.NewEncoder(os.Stdout))
	} else {
		render = tui.NewRenderer()
		hooks = consoleHooks(render)
	}

	wf, cleanup, err := BuildWorkflow(cfg, logger, adjuster.WithLifecycleHooks(hooks))
	if err != nil {
		return err
	}
	defer cleanup()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if !opts.JSON {
		printSystemMessage("Submitting '%s' (%s), approval threshold USD %d.", evidence.Name, evidence.MediaType, wf.Threshold())
	}

	runErr := wf.Submit(sigCtx, evidence)

	// If context was canceled (signal received), ensure runErr reflects it
	// if it doesn't already.
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	session := wf.Snapshot()

	if opts.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(sessionEnvelope{Type: "session", Session: session})
	} else if runErr == nil {
		printSummary(session, render)
	}

	logCompletion(session.Step, runErr, opts.JSON, sigCtx.Signal())
	return handleExecutionError(runErr)
}

// LoadEvidence reads a local file and wraps it as submittable evidence.
// The media type is inferred from the extension and the payload is
// base64-encoded the way remote hosts deliver it.
func LoadEvidence(path string) (domain.Evidence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("reading evidence: %w", err)
	}

	mediaType := detectMediaType(path)
	if mediaType == "" {
		return domain.Evidence{}, fmt.Errorf("cannot infer a media type for %q: name the file with an image or video extension", filepath.Base(path))
	}

	evidence := domain.Evidence{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      []byte(base64.StdEncoding.EncodeToString(data)),
	}
	if err := evidence.Validate(); err != nil {
		return domain.Evidence{}, err
	}
	return evidence, nil
}

// Evidence extensions the stdlib table does not carry on minimal systems.
var extraMediaTypes = map[string]string{
	".heic": "image/heic",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".webm": "video/webm",
}

func detectMediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return extraMediaTypes[ext]
}

// consoleHooks renders the claim lifecycle as it happens: a colored label
// per step and the markdown-rendered transcript entries.
func consoleHooks(render func(string) (string, error)) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			if e.Cause == domain.CauseAdvance {
				fmt.Println(tui.StepLabel(e.To))
			}
		},
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			printMarkdown(tui.FormatMessage(e.Seq, e.Message), render)
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			printSystemMessage("Analysis failed: %s", e.Reason)
		},
	}
}

// jsonHooks emits every lifecycle event as one NDJSON line on stdout.
func jsonHooks(enc *json.Encoder) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) { _ = enc.Encode(e) },
		OnMessage:    func(_ context.Context, e *domain.MessageEvent) { _ = enc.Encode(e) },
		OnResult:     func(_ context.Context, e *domain.ResultEvent) { _ = enc.Encode(e) },
		OnFailure:    func(_ context.Context, e *domain.FailureEvent) { _ = enc.Encode(e) },
	}
}

func printSummary(session domain.Session, render func(string) (string, error)) {
	var sb strings.Builder
	if session.Report != nil {
		sb.WriteString(tui.FormatReport(session.Report))
		sb.WriteString("\n")
	}
	if session.Result != nil {
		sb.WriteString(tui.FormatResult(session.Result))
	}
	if sb.Len() == 0 {
		return
	}
	printMarkdown(sb.String(), render)
}

func printMarkdown(md string, render func(string) (string, error)) {
	out, err := render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
