package script

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucasjones/reggen"
)

// Func is a pure function invoked from script source, either as a bare call
// (now(), plus(a,b)) or a method call on a receiver value (v.substring(1,3)).
type Func func(args []Value) (Value, error)

// Functions is the registry of names callable from script source.
var Functions = map[string]Func{
	"random":      fnRandom,
	"now":         fnNow,
	"plus":        fnPlus,
	"copy":        fnCopy,
	"substring":   fnSubstring,
	"lastIndexOf": fnLastIndexOf,
	"split":       fnSplit,

	"uuid":         fnUUID,
	"randomString": fnRandomString,
	"regexGen":     fnRegexGen,
	"md5":          fnMD5,
	"sha256":       fnSHA256,
	"hmacSha256":   fnHmacSHA256,
	"base64Encode": fnBase64Encode,
}

func fnRandom(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, NewScriptError("random function requires 2 argument")
	}
	min, err := args[0].AsInt()
	if err != nil {
		return Value{}, err
	}
	max, err := args[1].AsInt()
	if err != nil {
		return Value{}, err
	}
	if max < min {
		return Value{}, NewScriptError("random function requires min <= max")
	}
	v := min + rand.Int32N(max-min+1)
	return Int(v), nil
}

func fnNow(args []Value) (Value, error) {
	now := time.Now().UTC()
	switch len(args) {
	case 0:
		return String(now.Format(time.RFC3339)), nil
	case 1:
		format, err := args[0].AsString()
		if err != nil {
			return Value{}, err
		}
		return String(strftime(now, format)), nil
	default:
		return Value{}, NewScriptError("now function requires 0 or 1 argument")
	}
}

// strftime supports the small set of directives the config files actually
// use; anything unrecognized passes through literally.
func strftime(t time.Time, format string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "MST", "%z", "-0700",
	)
	layout := replacer.Replace(format)
	return t.Format(layout)
}

func fnPlus(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, NewScriptError("Plus function requires 2 arguments")
	}
	a, err := args[0].AsInt()
	if err != nil {
		return Value{}, err
	}
	b, err := args[1].AsInt()
	if err != nil {
		return Value{}, err
	}
	return Int(a + b), nil
}

func fnCopy(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, NewScriptError("copy function requires 1 argument")
	}
	return args[0].Clone(), nil
}

func fnSubstring(args []Value) (Value, error) {
	var s string
	var start, end int
	switch len(args) {
	case 2:
		str, err := args[0].AsString()
		if err != nil {
			return Value{}, err
		}
		startI, err := args[1].AsInt()
		if err != nil {
			return Value{}, err
		}
		s = str
		start = int(startI)
		end = len([]rune(s))
	case 3:
		str, err := args[0].AsString()
		if err != nil {
			return Value{}, err
		}
		startI, err := args[1].AsInt()
		if err != nil {
			return Value{}, err
		}
		endI, err := args[2].AsInt()
		if err != nil {
			return Value{}, err
		}
		s = str
		start = int(startI)
		end = int(endI)
	default:
		return Value{}, NewScriptError("substring function requires 2 or 3 arguments")
	}

	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	take := end - start
	if take < 0 {
		take = 0
	}
	stop := start + take
	if stop > len(runes) {
		stop = len(runes)
	}
	return String(string(runes[start:stop])), nil
}

func fnLastIndexOf(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, NewScriptError("lastIndexOf function requires 2 argument")
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	pattern, err := args[1].AsString()
	if err != nil {
		return Value{}, err
	}
	idx := strings.LastIndex(s, pattern)
	if idx < 0 {
		idx = 0
	}
	return Int(int32(idx)), nil
}

// fnSplit exposes the delimiter/selector split behavior the original
// implementation built but never wired through its canonical grammar: it
// splits a string on a delimiter and selects 'first', 'last', or the Nth
// (0-based) piece, returning the empty string when the selector has no
// matching piece. Called as v.split(delim, selector), so the receiver
// (input string) arrives as args[0].
func fnSplit(args []Value) (Value, error) {
	if len(args) != 3 {
		return Value{}, NewScriptError("split function requires 3 arguments")
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	delim, err := args[1].AsString()
	if err != nil {
		return Value{}, err
	}
	selector, err := args[2].AsString()
	if err != nil {
		return Value{}, err
	}

	parts := strings.Split(s, delim)
	switch selector {
	case "first":
		return String(parts[0]), nil
	case "last":
		return String(parts[len(parts)-1]), nil
	default:
		idx, err := String(selector).AsInt()
		if err != nil || idx < 0 || int(idx) >= len(parts) {
			return String(""), nil
		}
		return String(parts[idx]), nil
	}
}

func fnUUID(args []Value) (Value, error) {
	if len(args) != 0 {
		return Value{}, NewScriptError("uuid function requires 0 arguments")
	}
	return String(uuid.New().String()), nil
}

func fnRandomString(args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return Value{}, NewScriptError("randomString function requires 1 or 2 arguments")
	}
	n, err := args[0].AsInt()
	if err != nil {
		return Value{}, err
	}
	charset := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	if len(args) == 2 {
		charset, err = args[1].AsString()
		if err != nil {
			return Value{}, err
		}
	}
	if n < 0 {
		return Value{}, NewScriptError("randomString function requires non-negative length")
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return String(string(b)), nil
}

func fnRegexGen(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, NewScriptError("regexGen function requires 1 argument")
	}
	pattern, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	generated, err := reggen.Generate(pattern, 10)
	if err != nil {
		return Value{}, NewScriptError("regexGen: %s", err)
	}
	return String(generated), nil
}

func fnMD5(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, NewScriptError("md5 function requires 1 argument")
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	sum := md5.Sum([]byte(s))
	return String(hex.EncodeToString(sum[:])), nil
}

func fnSHA256(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, NewScriptError("sha256 function requires 1 argument")
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	sum := sha256.Sum256([]byte(s))
	return String(hex.EncodeToString(sum[:])), nil
}

func fnHmacSHA256(args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, NewScriptError("hmacSha256 function requires 2 arguments")
	}
	key, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	msg, err := args[1].AsString()
	if err != nil {
		return Value{}, err
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(msg))
	return String(hex.EncodeToString(mac.Sum(nil))), nil
}

func fnBase64Encode(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, NewScriptError("base64Encode function requires 1 argument")
	}
	s, err := args[0].AsString()
	if err != nil {
		return Value{}, err
	}
	return String(base64.StdEncoding.EncodeToString([]byte(s))), nil
}
