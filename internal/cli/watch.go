// Watch command: a live view of the contact list driven by commands on
// stdin.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/contactbook/internal/sqlite"
	"github.com/mesh-intelligence/contactbook/internal/viewmodel"
	"github.com/mesh-intelligence/contactbook/pkg/types"
)

const watchHelp = `commands:
  sort first|last|phone   change the ordering
  first <text>            set the first name of the new contact
  last <text>             set the last name
  phone <text>            set the phone number
  show | hide             open or close the new-contact form
  save                    save the new contact
  delete <id>             delete a contact
  help                    show this help
  quit                    leave`

// errQuit ends the command loop without failing the command.
var errQuit = errors.New("quit")

func newWatchCmd(a *app) *cobra.Command {
	var sortFlag string
	cmd := &cobra.Command{
		Use:   "watch [--sort first|last|phone]",
		Short: "Show the contact list live and edit it interactively",
		Long: `Watch prints the contact list every time it changes, including edits
made by other processes to the data file, and reads commands from stdin.

` + watchHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			backend, err := a.attachBackend(true)
			if err != nil {
				return err
			}
			defer a.detach(backend, &err)

			vm, err := a.newViewModel(backend, sortFlag, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loopErr := a.watchLoop(ctx, vm, backend, cmd.InOrStdin(), cmd.OutOrStdout())
			if cerr := vm.Close(); cerr != nil {
				a.log.Warn("pending changes failed", zap.Error(cerr))
				if loopErr == nil {
					loopErr = sysError("save changes", cerr)
				}
			}
			return loopErr
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", "", "initial sort: first, last or phone")
	return cmd
}

// watchLoop runs the renderer and the command reader until stdin ends,
// quit is entered, or ctx is cancelled.
func (a *app) watchLoop(ctx context.Context, vm *viewmodel.ViewModel, backend *sqlite.Backend, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out = &syncWriter{w: out}
	lines := readLines(ctx, in)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for state := range vm.Observe(gctx) {
			render(out, state, backend.ActiveQueries())
		}
		return nil
	})

	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				err := a.runWatchCommand(gctx, vm, backend, line, out)
				if errors.Is(err, errQuit) {
					return nil
				}
				if err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
		}
	})

	return g.Wait()
}

// readLines delivers stdin line by line. The reading goroutine exits at
// end of input or once ctx ends and the next line arrives.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// runWatchCommand applies one input line.
func (a *app) runWatchCommand(ctx context.Context, vm *viewmodel.ViewModel, backend *sqlite.Backend, line string, out io.Writer) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(out, watchHelp)
	case "sort":
		c, err := types.ParseSortCriterion(rest)
		if err != nil {
			return fmt.Errorf("%w %q (valid: first, last, phone)", err, rest)
		}
		vm.Dispatch(types.SortContacts{Criterion: c})
	case "first":
		vm.Dispatch(types.SetFirstName{Text: rest})
	case "last":
		vm.Dispatch(types.SetLastName{Text: rest})
	case "phone":
		vm.Dispatch(types.SetPhoneNumber{Text: rest})
	case "show":
		vm.Dispatch(types.ShowDialog{})
	case "hide":
		vm.Dispatch(types.HideDialog{})
	case "save":
		if !vm.Draft().Complete() {
			return errors.New("first name, last name and phone number are all required")
		}
		vm.Dispatch(types.SaveContact{})
	case "delete":
		c, err := backend.Get(ctx, rest)
		if err != nil {
			return fmt.Errorf("contact %q: %w", rest, err)
		}
		vm.Dispatch(types.DeleteContact{Contact: c})
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
	return nil
}

// render prints one view state.
func render(w io.Writer, s types.ViewState, queries int) {
	fmt.Fprintf(w, "\n== %d contacts, sorted by %s (live queries: %d) ==\n", len(s.Contacts), s.SortCriterion, queries)
	if s.Err != nil {
		fmt.Fprintln(w, "listing failed:", s.Err)
	}
	printContacts(w, s.Contacts)
	if s.IsAddingContact {
		fmt.Fprintf(w, "new contact: first=%q last=%q phone=%q\n", s.FirstName, s.LastName, s.PhoneNumber)
	}
}

// syncWriter serializes writes from the renderer and the command reader.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
