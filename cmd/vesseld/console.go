package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OCAP2/vessels/internal/engine"
)

type submitter interface {
	Submit(ctx context.Context, actorID int, line string) (string, error)
}

// runConsole feeds stdin lines to the engine as commands from actorID and
// prints each reply. A line starting with "@<id> " runs as that actor
// instead. It returns when r is exhausted or ctx is done.
func runConsole(ctx context.Context, r io.Reader, w io.Writer, sub submitter, actorID int) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		id, line := consoleLine(sc.Text(), actorID)
		if line == "" {
			continue
		}

		reply, err := sub.Submit(ctx, id, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, engine.ErrStopped) {
				return err
			}
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if reply != "" {
			fmt.Fprintln(w, strings.TrimRight(reply, "\n"))
		}
	}
	return sc.Err()
}

func consoleLine(raw string, actorID int) (int, string) {
	line := strings.TrimSpace(raw)
	if !strings.HasPrefix(line, "@") {
		return actorID, line
	}
	head, rest, _ := strings.Cut(line[1:], " ")
	id, err := strconv.Atoi(head)
	if err != nil {
		return actorID, line
	}
	return id, strings.TrimSpace(rest)
}
