// Command demo ingests chat messages in any supported wire dialect from
// stdin (one JSON value per line) and prints the conversation projected into
// the requested dialect.
//
// Usage:
//
//	demo -thread t1 -dialect ui-v5 < messages.jsonl
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"goa.design/clue/log"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messagelist"
)

func main() {
	var (
		thread   = flag.String("thread", "", "thread ID to bind the list to")
		resource = flag.String("resource", "", "resource ID to bind the list to")
		source   = flag.String("source", string(messagelist.SourceInput), "ingestion source tag")
		dialect  = flag.String("dialect", string(messagelist.DialectV2), "output dialect")
	)
	flag.Parse()

	ctx := log.Context(context.Background())

	list := messagelist.New(messagelist.Options{
		ThreadID:   *thread,
		ResourceID: *resource,
	})

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		raw := make([]byte, len(line))
		copy(raw, line)
		if _, err := list.Add(ctx, json.RawMessage(raw), messagelist.Source(*source)); err != nil {
			fail("add message: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fail("read stdin: %v", err)
	}

	projected, err := list.All().Project(messagelist.Dialect(*dialect))
	if err != nil {
		fail("%v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(projected); err != nil {
		fail("encode output: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "demo: "+format+"\n", args...)
	os.Exit(1)
}
