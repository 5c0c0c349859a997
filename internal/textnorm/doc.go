// Package textnorm turns item markup into plain text.
// A fixed, ordered list of rewrite rules runs once over the input, followed
// by HTML entity decoding. Rules never run to a fixed point: text produced by
// one rule is not re-examined by the rules before it.
package textnorm
