// Package treeproc provides priority-driven process-tree machinery.
//
// The core engine is in package 'core', and some command-line tools
// are in 'cmd'.
//
// See https://github.com/treeproc/treeproc/blob/master/README.md for more.
package treeproc
