// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/markdown-engine/pkg/types"
)

// Exchange is the interactive analysis backend: it writes the prompt to
// Out and suspends until a reply arrives on In. The reply runs to EOF or
// to the first blank line after content, so fenced multi-line JSON can
// be pasted; an immediately blank reply means "no analysis".
//
// The wait is bounded by the caller's context. Cancellation or expiry
// surfaces as an error, which Analyze resolves to the heuristic result.
type Exchange struct {
	In  io.Reader
	Out io.Writer
}

// Analyze prints the prompt and waits for one textual reply.
func (e *Exchange) Analyze(ctx context.Context, prompt string, _ []types.Block) (map[string]any, error) {
	fmt.Fprintln(e.Out, strings.Repeat("=", 72))
	fmt.Fprintln(e.Out, "PAGE STRUCTURE ANALYSIS REQUEST")
	fmt.Fprintln(e.Out, strings.Repeat("=", 72))
	fmt.Fprintln(e.Out, prompt)
	fmt.Fprintln(e.Out, strings.Repeat("=", 72))
	fmt.Fprintln(e.Out, "Paste the JSON reply below (blank line to finish, empty reply for heuristic analysis):")

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := readReply(e.In)
		ch <- reply{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return ParseReplyText(r.text)
	}
}

// readReply collects lines until EOF or the first blank line after some
// content has been read.
func readReply(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if b.Len() > 0 {
				break
			}
			// Leading blank line: empty reply, fall back.
			return "", nil
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading analyzer reply: %w", err)
	}
	return b.String(), nil
}
