package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mhpenta/imageedit"
)

const helpText = `Commands:
  open <path>      load an image file
  prompt <text>    set the edit instruction
  edit [text]      send the image and instruction to the model
  wait             block until the running edit finishes
  status           show the current state
  save [dir]       save the edited image
  clear            discard the image, result and prompt
  dismiss          hide the current error
  help             show this help
  quit             exit
`

// maxURLPreview is how much of a data URL is echoed to the terminal.
const maxURLPreview = 64

// REPL drives a Session from line-oriented commands.
type REPL struct {
	session *imageedit.Session
	storage imageedit.Storage

	// interactive enables the input prompt.
	interactive bool

	outMu sync.Mutex
	out   io.Writer

	edits sync.WaitGroup
}

// NewREPL returns a REPL over session writing to out. storage may be nil, in
// which case save reports that no storage is configured.
func NewREPL(session *imageedit.Session, storage imageedit.Storage, out io.Writer) *REPL {
	return &REPL{
		session: session,
		storage: storage,
		out:     out,
	}
}

// Run reads commands from in until EOF or quit. At EOF it waits for a
// running edit to finish; quit cancels it.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(in)
	r.showPrompt()
	for scanner.Scan() {
		if quit := r.Exec(ctx, scanner.Text()); quit {
			cancel()
			break
		}
		r.showPrompt()
	}

	r.edits.Wait()
	return scanner.Err()
}

// Exec runs a single command line and reports whether the REPL should exit.
func (r *REPL) Exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "open":
		r.open(ctx, arg)
	case "prompt":
		r.session.SetPrompt(arg)
		r.status()
	case "edit":
		if arg != "" {
			r.session.SetPrompt(arg)
		}
		r.edit(ctx)
	case "wait":
		r.edits.Wait()
		r.status()
	case "status":
		r.status()
	case "save":
		r.save(ctx, arg)
	case "clear":
		r.session.Clear()
		r.status()
	case "dismiss":
		r.session.DismissError()
		r.status()
	case "help", "?":
		r.printf("%s", helpText)
	case "quit", "exit":
		return true
	default:
		r.printf("unknown command %q, type help for a list\n", cmd)
	}
	return false
}

// Open loads path as if the user had typed "open path".
func (r *REPL) Open(ctx context.Context, path string) {
	r.open(ctx, path)
}

func (r *REPL) open(ctx context.Context, path string) {
	if path == "" {
		r.printf("usage: open <path>\n")
		return
	}
	if err := r.session.Open(ctx, imageedit.OpenLocalFile(path)); err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.status()
}

func (r *REPL) edit(ctx context.Context) {
	done, err := r.session.SubmitAsync(ctx)
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.status()

	r.edits.Add(1)
	go func() {
		defer r.edits.Done()
		<-done
		r.status()
	}()
}

func (r *REPL) save(ctx context.Context, dir string) {
	if r.storage == nil {
		r.printf("error: %v\n", imageedit.ErrStorageNotConfigured)
		return
	}
	res, err := r.session.SaveResult(ctx, r.storage, dir)
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	r.printf("saved %s (%d bytes)\n", res.URL, res.Size)
}

func (r *REPL) status() {
	snap := r.session.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "state: %s\n", snap.State)
	if snap.Asset != nil {
		fmt.Fprintf(&b, "original: %s %s %s\n", snap.Asset.Name, snap.Asset.MIMEType, previewURL(snap.Asset.DisplayURL))
	}
	if snap.Prompt != "" {
		fmt.Fprintf(&b, "prompt: %q\n", snap.Prompt)
	}
	if snap.Result != nil {
		fmt.Fprintf(&b, "edited: %s\n", previewURL(snap.Result.DisplayURL))
	}
	if snap.Error != "" {
		fmt.Fprintf(&b, "error: %s (dismiss to hide)\n", snap.Error)
	}
	r.printf("%s", b.String())
}

func (r *REPL) showPrompt() {
	if r.interactive {
		r.printf("imageedit> ")
	}
}

func (r *REPL) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func previewURL(u string) string {
	if len(u) <= maxURLPreview {
		return u
	}
	return fmt.Sprintf("%s... (%d chars)", u[:maxURLPreview], len(u))
}
