package ai

import "testing"

func runSplitter(chunks []string) (text, think string) {
	sp := &thinkSplitter{}
	for _, c := range chunks {
		t, th := sp.feed(c)
		text += t
		think += th
	}
	t, th := sp.flush()
	return text + t, think + th
}

func TestThinkSplitter_PlainText(t *testing.T) {
	text, think := runSplitter([]string{"hello ", "world"})
	if text != "hello world" || think != "" {
		t.Fatalf("got text=%q think=%q", text, think)
	}
}

func TestThinkSplitter_WholeBlockInOneChunk(t *testing.T) {
	text, think := runSplitter([]string{"<think>plan</think>answer"})
	if text != "answer" || think != "plan" {
		t.Fatalf("got text=%q think=%q", text, think)
	}
}

func TestThinkSplitter_TagSplitAcrossChunks(t *testing.T) {
	text, think := runSplitter([]string{"<th", "ink>step one", " step two</th", "ink> final"})
	if think != "step one step two" {
		t.Fatalf("unexpected think: %q", think)
	}
	if text != " final" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestThinkSplitter_UnterminatedBlockFlushesToReasoning(t *testing.T) {
	text, think := runSplitter([]string{"<think>never closed"})
	if text != "" || think != "never closed" {
		t.Fatalf("got text=%q think=%q", text, think)
	}
}

func TestThinkSplitter_AngleBracketInTextNotSwallowed(t *testing.T) {
	text, think := runSplitter([]string{"a < b and a <t", "able> too"})
	if think != "" {
		t.Fatalf("unexpected think: %q", think)
	}
	if text != "a < b and a <table> too" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestThinkSplitter_MultipleBlocks(t *testing.T) {
	text, think := runSplitter([]string{"<think>one</think>mid<think>two</think>end"})
	if text != "midend" || think != "onetwo" {
		t.Fatalf("got text=%q think=%q", text, think)
	}
}
