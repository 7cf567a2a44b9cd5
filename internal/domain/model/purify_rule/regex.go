package model

import (
	"strings"
	"time"
)

// regexTimeout bounds a single match so a pathological rule pattern cannot
// stall a purification.
const regexTimeout = 2 * time.Second

// jsReplacement rewrites an ECMAScript replacement template into regexp2
// substitution syntax. $n, $&, $`, $' and $$ are shared. $<name> becomes
// ${name}; $0, $_, $+ and ${ are literal in JS, so they are escaped.
func jsReplacement(tpl string) string {
	if !strings.Contains(tpl, "$") {
		return tpl
	}
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c != '$' || i+1 >= len(tpl) {
			b.WriteByte(c)
			continue
		}
		switch next := tpl[i+1]; next {
		case '$':
			b.WriteString("$$")
			i++
		case '<':
			end := strings.IndexByte(tpl[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteString("${" + tpl[i+2:i+2+end] + "}")
			i += 2 + end
		case '_', '+', '{':
			b.WriteString("$$")
			b.WriteByte(next)
			i++
		case '0':
			if i+2 < len(tpl) && tpl[i+2] >= '0' && tpl[i+2] <= '9' {
				b.WriteByte(c)
				continue
			}
			b.WriteString("$$0")
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
