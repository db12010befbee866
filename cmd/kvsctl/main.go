// kvsctl is a simple CLI tool for browsing and editing a store's keys.
//
// Usage:
//
//	kvsctl -dir <path> -id <n>              # interactive mode
//	kvsctl -dir <path> -id <n> -l           # list mode (print all)
//	kvsctl -dir <path> -id <n> get <key>
//	kvsctl -dir <path> -id <n> set <key> <json-value>
//	kvsctl -dir <path> -id <n> rm <key>
//
// Interactive mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      search key (prefix match)
//	q/Esc  quit
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/scorekvs/kvs"
	"github.com/scorekvs/kvs/value"
)

func main() {
	dir := flag.String("dir", ".", "store directory")
	id := flag.Uint("id", 0, "instance id")
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of items (0 = all)")
	flag.Parse()

	opts := kvs.OpenOptions{Directory: *dir, InstanceID: uint32(*id), NeedKvs: kvs.Optional, NeedDefaults: kvs.Optional}
	store, err := kvs.Open(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	args := flag.Args()
	if len(args) > 0 {
		runCommand(store, args)
		return
	}

	if *listFlag {
		runList(store, *countFlag)
		return
	}

	runInteractive(store)
}

func runCommand(store *kvs.Store, args []string) {
	switch args[0] {
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: kvsctl ... get <key>")
			os.Exit(1)
		}
		v, err := store.Get(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(v.String())
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: kvsctl ... set <key> <json-value>")
			os.Exit(1)
		}
		v, err := parseCLIValue(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := store.Set(args[1], v); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := store.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "rm":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: kvsctl ... rm <key>")
			os.Exit(1)
		}
		if err := store.Remove(args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := store.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		os.Exit(1)
	}
}

// parseCLIValue accepts a bare JSON scalar/array/object and wraps it as
// the tag inferred from its shape: integers that fit int32 become i32 to
// match the common case of small counters typed from a shell, other
// integers that fit int64 become i64, and every other number is f64.
func parseCLIValue(raw string) (value.Value, error) {
	var decoded any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return value.Value{}, fmt.Errorf("invalid json value: %w", err)
	}
	return fromJSONAny(decoded)
}

func fromJSONAny(v any) (value.Value, error) {
	switch t := v.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			if n >= -(1<<31) && n <= (1<<31)-1 {
				return value.Int32(int32(n)), nil
			}
			return value.Int64(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return value.Value{}, err
		}
		return value.Float64(f), nil
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			decoded, err := fromJSONAny(e)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = decoded
		}
		return value.Array(elems...), nil
	case map[string]any:
		m := make(map[string]value.Value, len(t))
		for k, e := range t {
			decoded, err := fromJSONAny(e)
			if err != nil {
				return value.Value{}, err
			}
			m[k] = decoded
		}
		return value.Object(m), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported json value %T", v)
	}
}

func runList(store *kvs.Store, count int) {
	keys, err := store.AllKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(keys)

	n := 0
	for _, k := range keys {
		if count > 0 && n >= count {
			break
		}
		v, err := store.Get(k)
		if err != nil {
			continue
		}
		fmt.Printf("%s: %s\n", display(k, 40), display(v.String(), 60))
		n++
	}
}

func runInteractive(store *kvs.Store) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := newViewer(store)
	v.updateSize()
	v.load()

	fmt.Print("\033[?25l\033[2J") // hide cursor, clear screen once
	defer fmt.Print("\033[?25h\033[2J\033[H")

	reader := bufio.NewReader(os.Stdin)

	for {
		if v.updateSize() {
			v.load()
		}
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		v.status = ""

		switch b {
		case 'q', 3, 27:
			if b == 27 && reader.Buffered() > 0 {
				b2, _ := reader.ReadByte()
				if b2 == '[' {
					b3, _ := reader.ReadByte()
					switch b3 {
					case 'A':
						v.up()
					case 'B':
						v.down()
					}
				}
				continue
			}
			return
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.first()
		case 'G':
			v.last()
		case '/':
			v.search(reader)
		}
	}
}

type viewer struct {
	store  *kvs.Store
	keys   []string
	offset int
	width  int
	height int
	status string
}

func newViewer(store *kvs.Store) *viewer {
	return &viewer{store: store}
}

func (v *viewer) lines() int {
	return v.height - 4
}

// updateSize checks terminal size and returns true if changed.
func (v *viewer) updateSize() bool {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	if w == v.width && h == v.height {
		return false
	}
	v.width, v.height = w, h
	return true
}

func (v *viewer) load() {
	keys, err := v.store.AllKeys()
	if err != nil {
		v.status = err.Error()
		return
	}
	sort.Strings(keys)
	v.keys = keys
	if v.offset > len(v.keys) {
		v.offset = 0
	}
}

func (v *viewer) down() {
	if v.offset+v.lines() < len(v.keys) {
		v.offset++
	}
}

func (v *viewer) up() {
	if v.offset > 0 {
		v.offset--
	}
}

func (v *viewer) first() { v.offset = 0 }

func (v *viewer) last() {
	v.offset = len(v.keys) - v.lines()
	if v.offset < 0 {
		v.offset = 0
	}
}

func (v *viewer) search(reader *bufio.Reader) {
	fmt.Print("\033[?25h")
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 {
			fmt.Print("\033[?25l")
			return
		}
		if b == 13 || b == 10 {
			break
		}
		if b == 127 || b == 8 {
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 && b < 127 {
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
	fmt.Print("\033[?25l")

	if len(input) == 0 {
		return
	}
	needle := string(input)
	for i, k := range v.keys {
		if strings.HasPrefix(k, needle) {
			v.offset = i
			v.status = fmt.Sprintf("jumped to: %s", display(k, 20))
			return
		}
	}
	v.status = "not found"
}

func (v *viewer) render() {
	var b strings.Builder
	b.WriteString("\033[H")
	b.WriteString("[ kvsctl ]\033[K\r\n")
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	keyWidth := 32
	valWidth := v.width - keyWidth - 4
	if valWidth < 20 {
		valWidth = 20
	}

	lines := v.lines()
	for i := 0; i < lines; i++ {
		idx := v.offset + i
		if idx < len(v.keys) {
			key := v.keys[idx]
			val, err := v.store.Get(key)
			rendered := "(error)"
			if err == nil {
				rendered = val.String()
			}
			b.WriteString(display(key, keyWidth))
			b.WriteString(": ")
			b.WriteString(display(rendered, valWidth))
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	if v.status != "" {
		b.WriteString(" ")
		b.WriteString(v.status)
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:search q:quit ")
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}

// display formats a string for display, truncating if needed.
func display(s string, maxLen int) string {
	if s == "" {
		return "(empty)"
	}
	if !utf8.ValidString(s) || !isPrintable(s) {
		return fmt.Sprintf("%x", s)
	}
	runes := []rune(s)
	if len(runes) > maxLen-3 && maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
