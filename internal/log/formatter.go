package log

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type formatter struct {
	pattern string
	time    string
}

// Format expands %time, %level, %field, %msg, %caller, %func, %goroutine and
// %n in the pattern.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	r := strings.NewReplacer(
		"%time", entry.Time.Format(f.time),
		"%level", strings.ToUpper(entry.Level.String()),
		"%field", buildFields(entry),
		"%msg", entry.Message,
		"%caller", getCaller(entry),
		"%func", getFunc(entry),
		"%goroutine", getGoroutineID(),
		"%n", "\n",
	)
	return []byte(r.Replace(f.pattern)), nil
}

// getCaller returns package/file:line of the log call.
func getCaller(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "-"
	}
	file := entry.Caller.File
	if i := strings.LastIndex(file, "/"); i != -1 && i+1 < len(file) {
		file = file[i+1:]
	}
	pkg := ""
	if fn := entry.Caller.Function; fn != "" {
		if i := strings.LastIndex(fn, "/"); i != -1 {
			fn = fn[i+1:]
		}
		pkg, _, _ = strings.Cut(fn, ".")
	}
	return fmt.Sprintf("%s/%s:%d", pkg, file, entry.Caller.Line)
}

// getFunc returns the bare function or method name of the log call.
func getFunc(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "-"
	}
	name := entry.Caller.Function
	if i := strings.LastIndex(name, "."); i != -1 && i+1 < len(name) {
		return name[i+1:]
	}
	return name
}

func getGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if id, _, ok := strings.Cut(stack, " "); ok {
		return id
	}
	return "unknown"
}

// buildFields renders entry fields sorted by key, each preceded by a space.
func buildFields(entry *logrus.Entry) string {
	if len(entry.Data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		switch v := entry.Data[k].(type) {
		case string:
			b.WriteString(v)
		case error:
			b.WriteString(v.Error())
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}
