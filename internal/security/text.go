package security

import (
	"strings"

	"golang.org/x/net/html"
)

// ブロック要素。前後で改行する。liは開始タグでのみ改行する。
var blockElements = map[string]bool{
	"p": true, "div": true, "blockquote": true,
	"ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
}

// renderText はHTML断片をプレーンテキストに変換する。
// ブロック要素とbrは改行に、liは行頭に「- 」を付け、aはリンク先を括弧で併記する。
func renderText(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	var href string
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapse(b.String())
		case html.TextToken:
			b.WriteString(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			switch {
			case tag == "br":
				b.WriteByte('\n')
			case tag == "li":
				b.WriteString("\n- ")
			case tag == "a" && hasAttr:
				href = attr(z, "href")
			case blockElements[tag]:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "a" && href != "":
				b.WriteString(" (" + href + ")")
				href = ""
			case blockElements[tag]:
				b.WriteByte('\n')
			}
		}
	}
}

func attr(z *html.Tokenizer, key string) string {
	for {
		k, v, more := z.TagAttr()
		if string(k) == key {
			return string(v)
		}
		if !more {
			return ""
		}
	}
}

// collapse は各行の空白を詰め、連続する空行を1行にまとめる。
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
