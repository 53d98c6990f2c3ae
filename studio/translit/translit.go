// Package translit converts Serbian Latin script to Cyrillic. Speech voices read Cyrillic
// more reliably than Latin for Serbian.
package translit

import "strings"

var latinToCyrillic = map[rune]rune{
	'A': 'А', 'a': 'а',
	'B': 'Б', 'b': 'б',
	'V': 'В', 'v': 'в',
	'G': 'Г', 'g': 'г',
	'D': 'Д', 'd': 'д',
	'Đ': 'Ђ', 'đ': 'ђ',
	'E': 'Е', 'e': 'е',
	'Ž': 'Ж', 'ž': 'ж',
	'Z': 'З', 'z': 'з',
	'I': 'И', 'i': 'и',
	'J': 'Ј', 'j': 'ј',
	'K': 'К', 'k': 'к',
	'L': 'Л', 'l': 'л',
	'M': 'М', 'm': 'м',
	'N': 'Н', 'n': 'н',
	'O': 'О', 'o': 'о',
	'P': 'П', 'p': 'п',
	'R': 'Р', 'r': 'р',
	'S': 'С', 's': 'с',
	'T': 'Т', 't': 'т',
	'Ć': 'Ћ', 'ć': 'ћ',
	'U': 'У', 'u': 'у',
	'F': 'Ф', 'f': 'ф',
	'H': 'Х', 'h': 'х',
	'C': 'Ц', 'c': 'ц',
	'Č': 'Ч', 'č': 'ч',
	'Š': 'Ш', 'š': 'ш',
}

// digraphs maps a first letter and the set of second letters that complete it.
var digraphs = []struct {
	first  rune
	second string
	out    rune
}{
	{'L', "jJ", 'Љ'}, {'l', "j", 'љ'},
	{'N', "jJ", 'Њ'}, {'n', "j", 'њ'},
	{'D', "žŽ", 'Џ'}, {'d', "ž", 'џ'},
}

// SerbianLatinToCyrillic transliterates letter by letter, treating lj, nj and dž as single
// letters. Anything without a mapping passes through.
func SerbianLatinToCyrillic(src string) string {
	rs := []rune(src)
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if i+1 < len(rs) {
			if out, ok := digraph(c, rs[i+1]); ok {
				b.WriteRune(out)
				i++
				continue
			}
		}
		if out, ok := latinToCyrillic[c]; ok {
			b.WriteRune(out)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func digraph(first, second rune) (rune, bool) {
	for _, d := range digraphs {
		if d.first == first && strings.ContainsRune(d.second, second) {
			return d.out, true
		}
	}
	return 0, false
}

// ForLanguage returns the text a speech voice should read for the given language code.
func ForLanguage(language, text string) string {
	if language == "sr" {
		return SerbianLatinToCyrillic(text)
	}
	return text
}
