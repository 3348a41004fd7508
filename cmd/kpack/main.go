package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"xdao.co/kpack/blockstore"
	"xdao.co/kpack/cidutil"
	"xdao.co/kpack/internal/config"
	"xdao.co/kpack/internal/logging"
	"xdao.co/kpack/internal/render"
	"xdao.co/kpack/pack"
	"xdao.co/kpack/protocol"
	"xdao.co/kpack/storage"
	"xdao.co/kpack/storage/bundle"
	"xdao.co/kpack/storage/localfs"
	"xdao.co/kpack/thunk"
)

// stdin is read when an input path is "-".
var stdin io.Reader = os.Stdin

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries what every subcommand needs after global flags are parsed.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	global := pflag.NewFlagSet("kpack", pflag.ContinueOnError)
	global.SetOutput(errOut)
	global.SetInterspersed(false)
	configPath := global.String("config", "", "Config file (YAML)")
	logLevel := global.String("log-level", "", "Override log.level")
	if err := global.Parse(args); err != nil {
		return 2
	}
	args = global.Args()
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(out)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	log, err := logging.New(cfg.Log, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "logging: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	a := &app{cfg: cfg, log: log, out: out, errOut: errOut}
	switch args[0] {
	case "varint":
		return a.cmdVarint(args[1:])
	case "thunk":
		return a.cmdThunk(args[1:])
	case "decode":
		return a.cmdDecode(args[1:])
	case "encode":
		return a.cmdEncode(args[1:])
	case "id":
		return a.cmdID(args[1:])
	case "cas":
		return a.cmdCAS(args[1:])
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "kpack: inspect and convert canonical binary records")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  kpack [--config <file>] [--log-level <level>] <command> ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  kpack varint encode [--signed] [--] <n>")
	fmt.Fprintln(w, "  kpack varint decode [--signed] [--bits <n>] <hex>")
	fmt.Fprintln(w, "  kpack thunk list")
	fmt.Fprintln(w, "  kpack thunk id <name>")
	fmt.Fprintln(w, "  kpack thunk derive <name>")
	fmt.Fprintln(w, "  kpack decode --type <record> [--format json|cbor|diag] [--hex] <file|->")
	fmt.Fprintln(w, "  kpack encode --type <record> [--input json|cbor] [--hex] <file|->")
	fmt.Fprintln(w, "  kpack id [--code <hash>] <file|->")
	fmt.Fprintln(w, "  kpack cas put [--replicate] <file|->")
	fmt.Fprintln(w, "  kpack cas get [--type <record> [--format json|cbor|diag]] <cid>")
	fmt.Fprintln(w, "  kpack cas export --out <bundle.tar> [--label name=<cid> ...] <cid> [<cid> ...]")
	fmt.Fprintln(w, "  kpack cas import <bundle.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Records: "+strings.Join(recordNames(), ", "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - settings come from kpack.yaml, KPACK_* environment variables and defaults")
	fmt.Fprintln(w, "  - cas commands use cas.dirs; the first directory receives writes")
	fmt.Fprintln(w, "  - encode writes raw bytes to stdout unless --hex is given")
}

var recordTypes = map[string]func() pack.Value{
	"block":              func() pack.Value { return new(protocol.Block) },
	"block-header":       func() pack.Value { return new(protocol.BlockHeader) },
	"block-receipt":      func() pack.Value { return new(protocol.BlockReceipt) },
	"transaction":        func() pack.Value { return new(protocol.Transaction) },
	"block-item":         func() pack.Value { return new(blockstore.BlockItem) },
	"block-record":       func() pack.Value { return new(blockstore.BlockRecord) },
	"transaction-item":   func() pack.Value { return new(blockstore.TransactionItem) },
	"transaction-record": func() pack.Value { return new(blockstore.TransactionRecord) },
}

func recordNames() []string {
	names := make([]string, 0, len(recordTypes))
	for n := range recordTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func newRecord(name string) (pack.Value, error) {
	mk, ok := recordTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown record type %q (want one of %s)", name, strings.Join(recordNames(), ", "))
	}
	return mk(), nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// readBinary reads path and, when asHex is set, decodes its hex text.
func readBinary(path string, asHex bool) ([]byte, error) {
	b, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if !asHex {
		return b, nil
	}
	return hex.DecodeString(strings.Join(strings.Fields(string(b)), ""))
}

// reportError prints err, adding the structured kind and rule when present.
func (a *app) reportError(what string, err error) {
	var pe *pack.Error
	if errors.As(err, &pe) {
		fmt.Fprintf(a.errOut, "%s: %v [%s %s]\n", what, err, pe.Kind, pe.RuleID)
		return
	}
	fmt.Fprintf(a.errOut, "%s: %v\n", what, err)
}

func (a *app) cmdVarint(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: kpack varint <subcommand> ...")
		fmt.Fprintln(a.errOut, "subcommands: encode, decode")
		return 2
	}
	switch args[0] {
	case "encode":
		fs := pflag.NewFlagSet("varint encode", pflag.ContinueOnError)
		fs.SetOutput(a.errOut)
		signed := fs.Bool("signed", false, "Zig-zag encode a signed value")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(a.errOut, "usage: kpack varint encode [--signed] [--] <n>")
			return 2
		}
		var b []byte
		if *signed {
			n, err := strconv.ParseInt(fs.Arg(0), 10, 64)
			if err != nil {
				fmt.Fprintf(a.errOut, "invalid value: %v\n", err)
				return 2
			}
			b = pack.AppendVarint(nil, n)
		} else {
			n, err := strconv.ParseUint(fs.Arg(0), 10, 64)
			if err != nil {
				fmt.Fprintf(a.errOut, "invalid value: %v\n", err)
				return 2
			}
			b = pack.AppendUvarint(nil, n)
		}
		fmt.Fprintln(a.out, hex.EncodeToString(b))
		return 0
	case "decode":
		fs := pflag.NewFlagSet("varint decode", pflag.ContinueOnError)
		fs.SetOutput(a.errOut)
		signed := fs.Bool("signed", false, "Zig-zag decode a signed value")
		bits := fs.Int("bits", 64, "Target width in bits")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(a.errOut, "usage: kpack varint decode [--signed] [--bits <n>] <hex>")
			return 2
		}
		if *bits < 1 || *bits > 64 {
			fmt.Fprintln(a.errOut, "--bits must be between 1 and 64")
			return 2
		}
		b, err := hex.DecodeString(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid hex: %v\n", err)
			return 2
		}
		var (
			text string
			n    int
		)
		if *signed {
			var v int64
			v, n, err = pack.ConsumeVarint(b, *bits)
			text = strconv.FormatInt(v, 10)
		} else {
			var v uint64
			v, n, err = pack.ConsumeUvarint(b, *bits)
			text = strconv.FormatUint(v, 10)
		}
		if err != nil {
			a.reportError("decode varint", err)
			return 1
		}
		fmt.Fprintf(a.out, "%s (%d bytes)\n", text, n)
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown varint subcommand: %s\n", args[0])
		return 2
	}
}

func (a *app) cmdThunk(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: kpack thunk <subcommand> ...")
		fmt.Fprintln(a.errOut, "subcommands: list, id, derive")
		return 2
	}
	switch args[0] {
	case "list":
		if len(args) != 1 {
			fmt.Fprintln(a.errOut, "usage: kpack thunk list")
			return 2
		}
		for _, e := range thunk.All() {
			fmt.Fprintf(a.out, "%s %s\n", e.ID, e.Name)
		}
		return 0
	case "id":
		if len(args) != 2 {
			fmt.Fprintln(a.errOut, "usage: kpack thunk id <name>")
			return 2
		}
		id, ok := thunk.Lookup(args[1])
		if !ok {
			fmt.Fprintf(a.errOut, "unknown thunk: %s\n", args[1])
			return 1
		}
		fmt.Fprintln(a.out, id)
		return 0
	case "derive":
		if len(args) != 2 {
			fmt.Fprintln(a.errOut, "usage: kpack thunk derive <name>")
			return 2
		}
		fmt.Fprintln(a.out, thunk.Derive(args[1]))
		return 0
	default:
		fmt.Fprintf(a.errOut, "unknown thunk subcommand: %s\n", args[0])
		return 2
	}
}

func (a *app) cmdDecode(args []string) int {
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	typ := fs.String("type", "", "Record type")
	format := fs.String("format", "", "Output format: json, cbor or diag (default output.format)")
	asHex := fs.Bool("hex", false, "Input is hex text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *typ == "" || fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: kpack decode --type <record> [--format json|cbor|diag] [--hex] <file|->")
		return 2
	}
	f, err := a.outputFormat(*format)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 2
	}
	v, err := newRecord(*typ)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 2
	}
	b, err := readBinary(fs.Arg(0), *asHex)
	if err != nil {
		fmt.Fprintf(a.errOut, "read input: %v\n", err)
		return 1
	}
	if err := pack.UnmarshalExact(b, v); err != nil {
		a.reportError("decode "+*typ, err)
		return 1
	}
	a.log.Debug("decoded record", zap.String("type", *typ), zap.Int("bytes", len(b)))
	return a.writeTree(f, v)
}

func (a *app) cmdEncode(args []string) int {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	typ := fs.String("type", "", "Record type")
	input := fs.String("input", "json", "Input format: json or cbor")
	asHex := fs.Bool("hex", false, "Write hex text instead of raw bytes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *typ == "" || fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: kpack encode --type <record> [--input json|cbor] [--hex] <file|->")
		return 2
	}
	v, err := newRecord(*typ)
	if err != nil {
		fmt.Fprintln(a.errOut, err)
		return 2
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "read input: %v\n", err)
		return 1
	}
	var node any
	switch *input {
	case "json":
		node, err = pack.ParseJSON(b)
	case "cbor":
		node, err = render.FromCBOR(b)
	default:
		fmt.Fprintf(a.errOut, "unknown input format %q (want json or cbor)\n", *input)
		return 2
	}
	if err != nil {
		a.reportError("parse input", err)
		return 1
	}
	if err := v.DecodeJSON(node, 0); err != nil {
		a.reportError("encode "+*typ, err)
		return 1
	}
	enc := pack.Marshal(v)
	a.log.Debug("encoded record", zap.String("type", *typ), zap.Int("bytes", len(enc)))
	if *asHex {
		fmt.Fprintln(a.out, hex.EncodeToString(enc))
		return 0
	}
	if _, err := a.out.Write(enc); err != nil {
		fmt.Fprintf(a.errOut, "write output: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) cmdID(args []string) int {
	fs := pflag.NewFlagSet("id", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	codeName := fs.String("code", "", "Hash algorithm (default hash.code)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: kpack id [--code <hash>] <file|->")
		return 2
	}
	code := a.cfg.HashCode()
	if *codeName != "" {
		c, err := cidutil.CodeByName(*codeName)
		if err != nil {
			fmt.Fprintln(a.errOut, err)
			fmt.Fprintln(a.errOut, "available: "+strings.Join(cidutil.Algorithms(), ", "))
			return 2
		}
		code = c
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "read input: %v\n", err)
		return 1
	}
	mh, err := cidutil.Sum(code, b)
	if err != nil {
		fmt.Fprintf(a.errOut, "hash: %v\n", err)
		return 1
	}
	c, err := cidutil.CID(cid.Raw, mh)
	if err != nil {
		fmt.Fprintf(a.errOut, "cid: %v\n", err)
		return 1
	}
	fmt.Fprintf(a.out, "multihash %s\n", mh)
	fmt.Fprintf(a.out, "cid %s\n", c)
	return 0
}

func (a *app) cmdCAS(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: kpack cas <subcommand> ...")
		fmt.Fprintln(a.errOut, "subcommands: put, get, export, import")
		return 2
	}
	switch args[0] {
	case "put":
		fs := pflag.NewFlagSet("cas put", pflag.ContinueOnError)
		fs.SetOutput(a.errOut)
		replicate := fs.Bool("replicate", false, "Write to every configured directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(a.errOut, "usage: kpack cas put [--replicate] <file|->")
			return 2
		}
		stores, err := a.openStores()
		if err != nil {
			fmt.Fprintf(a.errOut, "cas: %v\n", err)
			return 1
		}
		b, err := readInput(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(a.errOut, "read input: %v\n", err)
			return 1
		}
		var id cid.Cid
		if *replicate {
			id, err = storage.ReplicatingCAS{Backends: stores}.Put(b)
		} else {
			id, err = multiCAS(stores).Put(b)
		}
		if err != nil {
			fmt.Fprintf(a.errOut, "cas put: %v\n", err)
			return 1
		}
		a.log.Debug("stored object", zap.Stringer("cid", id), zap.Int("bytes", len(b)), zap.Bool("replicate", *replicate))
		fmt.Fprintln(a.out, id)
		return 0
	case "get":
		fs := pflag.NewFlagSet("cas get", pflag.ContinueOnError)
		fs.SetOutput(a.errOut)
		typ := fs.String("type", "", "Decode the object as this record type")
		format := fs.String("format", "", "Output format with --type: json, cbor or diag")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(a.errOut, "usage: kpack cas get [--type <record> [--format json|cbor|diag]] <cid>")
			return 2
		}
		id, err := cid.Decode(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid cid: %v\n", err)
			return 2
		}
		stores, err := a.openStores()
		if err != nil {
			fmt.Fprintf(a.errOut, "cas: %v\n", err)
			return 1
		}
		c := multiCAS(stores)
		if *typ == "" {
			b, err := c.Get(id)
			if err != nil {
				fmt.Fprintf(a.errOut, "cas get: %v\n", err)
				return 1
			}
			if _, err := a.out.Write(b); err != nil {
				fmt.Fprintf(a.errOut, "write output: %v\n", err)
				return 1
			}
			return 0
		}
		f, err := a.outputFormat(*format)
		if err != nil {
			fmt.Fprintln(a.errOut, err)
			return 2
		}
		v, err := newRecord(*typ)
		if err != nil {
			fmt.Fprintln(a.errOut, err)
			return 2
		}
		if err := storage.GetValue(c, id, v); err != nil {
			a.reportError("cas get", err)
			return 1
		}
		return a.writeTree(f, v)
	case "export":
		return a.cmdCASExport(args[1:])
	case "import":
		return a.cmdCASImport(args[1:])
	default:
		fmt.Fprintf(a.errOut, "unknown cas subcommand: %s\n", args[0])
		return 2
	}
}

func (a *app) cmdCASExport(args []string) int {
	fs := pflag.NewFlagSet("cas export", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	outPath := fs.String("out", "", "Bundle file to write")
	labels := fs.StringArray("label", nil, "Index label name=<cid> (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *outPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(a.errOut, "usage: kpack cas export --out <bundle.tar> [--label name=<cid> ...] <cid> [<cid> ...]")
		return 2
	}
	ids := make([]cid.Cid, 0, fs.NArg())
	for _, s := range fs.Args() {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid cid %q: %v\n", s, err)
			return 2
		}
		ids = append(ids, id)
	}
	opts := bundle.ExportOptions{IncludeIndex: true, Labels: map[string]cid.Cid{}}
	for _, l := range *labels {
		name, value, ok := strings.Cut(l, "=")
		if !ok {
			fmt.Fprintf(a.errOut, "invalid --label %q (want name=<cid>)\n", l)
			return 2
		}
		id, err := cid.Decode(value)
		if err != nil {
			fmt.Fprintf(a.errOut, "invalid --label %q: %v\n", l, err)
			return 2
		}
		opts.Labels[name] = id
	}
	stores, err := a.openStores()
	if err != nil {
		fmt.Fprintf(a.errOut, "cas: %v\n", err)
		return 1
	}
	var buf bytes.Buffer
	if err := bundle.Export(&buf, multiCAS(stores), ids, opts); err != nil {
		fmt.Fprintf(a.errOut, "cas export: %v\n", err)
		return 1
	}
	if err := os.WriteFile(*outPath, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(a.errOut, "write bundle: %v\n", err)
		return 1
	}
	a.log.Debug("exported bundle", zap.String("path", *outPath), zap.Int("objects", len(ids)), zap.Int("bytes", buf.Len()))
	return 0
}

func (a *app) cmdCASImport(args []string) int {
	fs := pflag.NewFlagSet("cas import", pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	ignoreUnknown := fs.Bool("ignore-unknown", false, "Skip entries that are not objects")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.errOut, "usage: kpack cas import [--ignore-unknown] <bundle.tar|->")
		return 2
	}
	stores, err := a.openStores()
	if err != nil {
		fmt.Fprintf(a.errOut, "cas: %v\n", err)
		return 1
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(a.errOut, "read bundle: %v\n", err)
		return 1
	}
	idx, err := bundle.ImportWithOptions(bytes.NewReader(b), stores[0].CAS, bundle.ImportOptions{IgnoreUnknown: *ignoreUnknown})
	if err != nil {
		fmt.Fprintf(a.errOut, "cas import: %v\n", err)
		return 1
	}
	if idx != nil {
		for _, e := range idx.Objects {
			fmt.Fprintln(a.out, e.CID)
		}
	}
	return 0
}

func (a *app) openStores() ([]storage.NamedCAS, error) {
	if len(a.cfg.CAS.Dirs) == 0 {
		return nil, fmt.Errorf("%w (set cas.dirs)", storage.ErrNoBackends)
	}
	out := make([]storage.NamedCAS, 0, len(a.cfg.CAS.Dirs))
	for _, dir := range a.cfg.CAS.Dirs {
		c, err := localfs.New(dir, localfs.WithHash(a.cfg.HashCode()))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", dir, err)
		}
		out = append(out, storage.NamedCAS{Name: dir, CAS: c})
	}
	return out, nil
}

func multiCAS(stores []storage.NamedCAS) storage.MultiCAS {
	m := storage.MultiCAS{Adapters: make([]storage.CAS, len(stores))}
	for i, s := range stores {
		m.Adapters[i] = s.CAS
	}
	return m
}

func (a *app) outputFormat(flagValue string) (render.Format, error) {
	if flagValue == "" {
		flagValue = a.cfg.Output.Format
	}
	return render.ParseFormat(flagValue)
}

func (a *app) writeTree(f render.Format, v pack.JSONEncoder) int {
	var buf bytes.Buffer
	if err := render.Write(&buf, f, v.EncodeJSON()); err != nil {
		fmt.Fprintf(a.errOut, "render: %v\n", err)
		return 1
	}
	if _, err := a.out.Write(buf.Bytes()); err != nil {
		fmt.Fprintf(a.errOut, "write output: %v\n", err)
		return 1
	}
	return 0
}
