package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"gitlab.com/lfmsh/bank/internal/repositories"
)

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate lowercases s and spells it with latin letters. Characters
// that can not be part of a username are dropped.
func Transliterate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func initial(name string) string {
	t := Transliterate(name)
	if t == "" {
		return ""
	}
	// multi-letter spellings such as "zh" or "yu" stay whole
	first := []rune(strings.ToLower(strings.TrimSpace(name)))[0]
	if latin, ok := cyrillicToLatin[first]; ok && latin != "" {
		return latin
	}
	return t[:1]
}

// GenerateUsername picks the first free login among last, last.f, last.f.m and
// then the last of those with 1, 2, 3 and so on appended.
func GenerateUsername(ctx context.Context, users repositories.UserRepository, last, first, middle string) (string, error) {
	base := Transliterate(last)
	if base == "" {
		return "", invalid("cannot build a username from last name %q", last)
	}

	candidates := []string{base}
	if f := initial(first); f != "" {
		candidates = append(candidates, base+"."+f)
		if m := initial(middle); m != "" {
			candidates = append(candidates, base+"."+f+"."+m)
		}
	}

	for _, candidate := range candidates {
		free, err := usernameFree(ctx, users, candidate)
		if err != nil || free {
			return candidate, err
		}
	}

	stem := candidates[len(candidates)-1]
	for n := 1; ; n++ {
		candidate := stem + strconv.Itoa(n)
		free, err := usernameFree(ctx, users, candidate)
		if err != nil || free {
			return candidate, err
		}
	}
}

func usernameFree(ctx context.Context, users repositories.UserRepository, username string) (bool, error) {
	_, err := users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.NotFoundError) {
		return true, nil
	}
	return false, err
}
