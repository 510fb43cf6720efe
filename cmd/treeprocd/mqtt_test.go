package main

import (
	"testing"
)

func TestParseTopic(t *testing.T) {
	for _, c := range []struct {
		input string
		topic string
		qos   byte
	}{
		{"treeproc/ops", "treeproc/ops", 0},
		{"treeproc/ops:1", "treeproc/ops", 1},
		{"treeproc/ops:2", "treeproc/ops", 2},
	} {
		topic, qos := parseTopic(c.input)
		if topic != c.topic || qos != c.qos {
			t.Fatalf("%s -> %s %d", c.input, topic, qos)
		}
	}
}
