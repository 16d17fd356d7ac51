package cacheproxy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	c "github.com/unkn0wn-root/cacheproxy/codec"
	"github.com/unkn0wn-root/cacheproxy/internal/util"
)

func newTestCollection[P any](t *testing.T, prefix string, mp *memProvider, optsOpt func(*CollectionOptions[int, P])) *Collection[int, P] {
	t.Helper()
	opts := CollectionOptions[int, P]{
		Prefix:   prefix,
		Provider: mp,
		Codec:    c.JSON[int]{},
		Locks:    NewKeyLocks(),
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	coll, err := NewCollection(opts)
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	return coll
}

// counter returns a loader yielding 1, 2, 3... on successive calls.
func counter[P any]() (ParamsLoadFunc[int, P], *int) {
	n := new(int)
	return func(context.Context, P) (int, error) {
		*n++
		return *n, nil
	}, n
}

func TestNewCollectionValidation(t *testing.T) {
	if _, err := NewCollection(CollectionOptions[int, int]{Provider: newMemProvider(), Codec: c.JSON[int]{}}); !errors.Is(err, ErrEmptyPrefix) {
		t.Fatalf("err = %v, want ErrEmptyPrefix", err)
	}
	if _, err := NewCollection(CollectionOptions[int, int]{Prefix: "KEY", Codec: c.JSON[int]{}}); !errors.Is(err, ErrNilProvider) {
		t.Fatalf("err = %v, want ErrNilProvider", err)
	}
	if _, err := NewArgsCollection(ArgsOptions[int]{Provider: newMemProvider(), Codec: c.JSON[int]{}}); !errors.Is(err, ErrEmptyPrefix) {
		t.Fatalf("err = %v, want ErrEmptyPrefix", err)
	}
}

func TestCollectionKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	coll := newTestCollection[int](t, "KEY", mp, nil)
	load, loads := counter[int]()

	for i, tc := range []struct{ params, want int }{{1, 1}, {2, 2}, {1, 1}} {
		got, err := coll.GetData(ctx, tc.params, load)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != tc.want {
			t.Fatalf("call %d GetData(%d) = %d, want %d", i, tc.params, got, tc.want)
		}
	}
	if *loads != 2 {
		t.Fatalf("loads = %d, want 2", *loads)
	}
	if !mp.has("KEY_1") || !mp.has("KEY_2") {
		t.Fatalf("expected KEY_1 and KEY_2 in the store")
	}
}

func TestCollectionClearOnlyTouchesOneKey(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	coll := newTestCollection[int](t, "KEY", mp, nil)
	load, _ := counter[int]()

	coll.GetData(ctx, 1, load) // 1
	coll.GetData(ctx, 2, load) // 2
	if err := coll.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if got, _ := coll.GetData(ctx, 1, load); got != 3 {
		t.Fatalf("GetData(1) after Clear = %d, want 3", got)
	}
	if got, _ := coll.GetData(ctx, 2, load); got != 2 {
		t.Fatalf("GetData(2) = %d, want cached 2", got)
	}
}

func TestCollectionClearAllIsScoped(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	hooks := &recordingHooks{}
	users := newTestCollection[int](t, "user", mp, func(o *CollectionOptions[int, int]) { o.Hooks = hooks })
	lookalike := newTestCollection[int](t, "users", mp, nil)
	load, _ := counter[int]()

	for _, id := range []int{1, 2, 3} {
		users.GetData(ctx, id, load)
		lookalike.GetData(ctx, id, load)
	}
	if err := users.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	for _, k := range []string{"user_1", "user_2", "user_3"} {
		if mp.has(k) {
			t.Fatalf("%s survived ClearAll", k)
		}
	}
	for _, k := range []string{"users_1", "users_2", "users_3"} {
		if !mp.has(k) {
			t.Fatalf("%s was removed by another collection's ClearAll", k)
		}
	}
	if len(hooks.prefixes) != 1 || hooks.prefixes[0] != "user_" {
		t.Fatalf("ClearedPrefix = %v, want [user_]", hooks.prefixes)
	}
}

func TestCollectionSetData(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	coll := newTestCollection[int](t, "KEY", mp, func(o *CollectionOptions[int, int]) {
		o.Expiration = func(v int) time.Duration { return time.Duration(v) * time.Minute }
	})

	if err := coll.SetData(ctx, 5, 42); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	got, err := coll.GetData(ctx, 5, func(context.Context, int) (int, error) {
		t.Fatalf("load must not run after SetData")
		return 0, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("GetData = %d, %v", got, err)
	}
	if e, _ := mp.entry("KEY_5"); e.ttl != 42*time.Minute {
		t.Fatalf("ttl = %v, want 42m", e.ttl)
	}
}

func TestCollectionKeyDerivation(t *testing.T) {
	t.Run("string params are literal", func(t *testing.T) {
		coll := newTestCollection[string](t, "KEY", newMemProvider(), nil)
		for _, tc := range []struct{ in, want string }{
			{"1", "KEY_1"},
			{"", "KEY_"},
			{"a b", "KEY_a b"},
			{"null", `KEY_"null"`},
			{`"null"`, `KEY_"\"null\""`},
			{`"x`, `KEY_"\"x"`},
			{`x"`, `KEY_x"`},
		} {
			got, err := coll.Key(tc.in)
			if err != nil || got != tc.want {
				t.Fatalf("Key(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		}
	})

	t.Run("quoted strings stay distinct", func(t *testing.T) {
		ctx := context.Background()
		mp := newMemProvider()
		coll := newTestCollection[string](t, "KEY", mp, nil)
		load, _ := counter[string]()

		a, _ := coll.Key("null")
		b, _ := coll.Key(`"null"`)
		if a == b {
			t.Fatalf(`Key("null") and Key("\"null\"") share %q`, a)
		}
		if v, _ := coll.GetData(ctx, "null", load); v != 1 {
			t.Fatalf("GetData(null) = %d, want 1", v)
		}
		if v, _ := coll.GetData(ctx, `"null"`, load); v != 2 {
			t.Fatalf(`GetData("null") = %d, want 2 (own entry)`, v)
		}

		args, err := NewArgsCollection(ArgsOptions[int]{
			Prefix:   "KEY",
			Provider: mp,
			Codec:    c.JSON[int]{},
			Locks:    NewKeyLocks(),
		})
		if err != nil {
			t.Fatalf("NewArgsCollection: %v", err)
		}
		a, _ = args.Key("null")
		b, _ = args.Key(`"null"`)
		n, _ := args.Key(nil)
		if a == b || a == n || b == n {
			t.Fatalf("args keys collide: %q %q %q", a, b, n)
		}
	})

	t.Run("nil params", func(t *testing.T) {
		ptrs := newTestCollection[*int](t, "KEY", newMemProvider(), nil)
		if got, _ := ptrs.Key(nil); got != "KEY_null" {
			t.Fatalf("Key(nil *int) = %q, want KEY_null", got)
		}
		one := 1
		if got, _ := ptrs.Key(&one); got != "KEY_1" {
			t.Fatalf("Key(&1) = %q, want KEY_1", got)
		}

		anys := newTestCollection[any](t, "KEY", newMemProvider(), nil)
		if got, _ := anys.Key(nil); got != "KEY_null" {
			t.Fatalf("Key(nil any) = %q, want KEY_null", got)
		}
		if got, _ := anys.Key("x"); got != "KEY_x" {
			t.Fatalf(`Key(any("x")) = %q, want KEY_x`, got)
		}

		maps := newTestCollection[map[string]int](t, "KEY", newMemProvider(), nil)
		if got, _ := maps.Key(nil); got != "KEY_null" {
			t.Fatalf("Key(nil map) = %q, want KEY_null", got)
		}
	})

	t.Run("structured params", func(t *testing.T) {
		maps := newTestCollection[map[string]int](t, "KEY", newMemProvider(), nil)
		got, _ := maps.Key(map[string]int{"asd": 1})
		if got != `KEY_{"asd":1}` {
			t.Fatalf("Key(map) = %q", got)
		}
		a, _ := maps.Key(map[string]int{"b": 2, "a": 1, "c": 3})
		b, _ := maps.Key(map[string]int{"c": 3, "a": 1, "b": 2})
		if a != b {
			t.Fatalf("equal maps gave %q and %q", a, b)
		}

		type query struct {
			Page int
			Tag  string
		}
		qs := newTestCollection[query](t, "KEY", newMemProvider(), nil)
		k1, _ := qs.Key(query{Page: 1, Tag: "go"})
		k2, _ := qs.Key(query{Page: 1, Tag: "go"})
		k3, _ := qs.Key(query{Page: 2, Tag: "go"})
		if k1 != k2 || k1 == k3 {
			t.Fatalf("struct keys: %q %q %q", k1, k2, k3)
		}
		if k1 != `KEY_{"Page":1,"Tag":"go"}` {
			t.Fatalf("struct key = %q", k1)
		}
	})

	t.Run("unencodable params", func(t *testing.T) {
		chans := newTestCollection[chan int](t, "KEY", newMemProvider(), nil)
		_, err := chans.Key(make(chan int))
		var ke *KeyError
		if !errors.As(err, &ke) || ke.Prefix != "KEY" {
			t.Fatalf("err = %v, want *KeyError for prefix KEY", err)
		}
		_, err = chans.GetData(context.Background(), make(chan int), func(context.Context, chan int) (int, error) {
			t.Fatalf("load must not run without a key")
			return 0, nil
		})
		if !errors.As(err, &ke) {
			t.Fatalf("GetData err = %v, want *KeyError", err)
		}
	})
}

func TestCollectionMaxKeyLen(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	coll := newTestCollection[string](t, "KEY", mp, func(o *CollectionOptions[int, string]) { o.MaxKeyLen = 8 })

	short, _ := coll.Key("abc")
	if short != "KEY_abc" {
		t.Fatalf("short key = %q", short)
	}

	long := strings.Repeat("x", 64)
	k, _ := coll.Key(long)
	if k != "KEY_"+util.HashKey(long) {
		t.Fatalf("long key = %q, want hashed", k)
	}
	if other, _ := coll.Key(long + "y"); other == k {
		t.Fatalf("distinct long params hashed to the same key")
	}

	load, _ := counter[string]()
	coll.GetData(ctx, long, load)
	if !mp.has(k) {
		t.Fatalf("hashed key not stored")
	}
	if err := coll.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if mp.has(k) {
		t.Fatalf("hashed key survived ClearAll")
	}
}

func TestCollectionHashedPartsCannotBeForged(t *testing.T) {
	coll := newTestCollection[string](t, "KEY", newMemProvider(), func(o *CollectionOptions[int, string]) { o.MaxKeyLen = 20 })

	long := strings.Repeat("y", 64)
	hashed, _ := coll.Key(long)
	forged, _ := coll.Key(util.HashKey(long))
	if hashed == forged {
		t.Fatalf("literal digest param reused the hashed key %q", hashed)
	}
	if forged != "KEY_"+util.HashKey(util.HashKey(long)) {
		t.Fatalf("digest-like param = %q, want it hashed", forged)
	}

	plain := newTestCollection[string](t, "KEY", newMemProvider(), nil)
	if k, _ := plain.Key("h:abc"); k != "KEY_h:abc" {
		t.Fatalf("without MaxKeyLen parts stay verbatim, got %q", k)
	}
}

func TestCodecKeysAreDeterministic(t *testing.T) {
	encoders := map[string]KeyEncoder[map[string]int]{
		"cbor":    CodecKeys[map[string]int](c.MustCBOR[map[string]int](true)),
		"msgpack": CodecKeys[map[string]int](c.Msgpack[map[string]int]{}),
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			coll := newTestCollection[map[string]int](t, "KEY", newMemProvider(), func(o *CollectionOptions[int, map[string]int]) {
				o.Keys = enc
			})

			m1 := make(map[string]int)
			m2 := make(map[string]int)
			for i := 0; i < 20; i++ {
				m1[string(rune('a'+i))] = i
				m2[string(rune('a'+19-i))] = 19 - i
			}
			for i := 0; i < 10; i++ {
				a, err := coll.Key(m1)
				if err != nil {
					t.Fatalf("Key: %v", err)
				}
				b, _ := coll.Key(m2)
				if a != b {
					t.Fatalf("equal maps gave %q and %q", a, b)
				}
			}
			m2["a"] = 100
			a, _ := coll.Key(m1)
			b, _ := coll.Key(m2)
			if a == b {
				t.Fatalf("different maps share key %q", a)
			}
			if !strings.HasPrefix(a, "KEY_") {
				t.Fatalf("key %q lost its prefix", a)
			}
		})
	}
}

func TestKeyEncoderFunc(t *testing.T) {
	type id struct{ Tenant, User int }
	coll := newTestCollection[id](t, "acct", newMemProvider(), func(o *CollectionOptions[int, id]) {
		o.Keys = KeyEncoderFunc[id](func(p id) (string, error) {
			return strings.Join([]string{"t", itoa(p.Tenant), "u", itoa(p.User)}, ":"), nil
		})
	})
	if k, _ := coll.Key(id{Tenant: 3, User: 9}); k != "acct_t:3:u:9" {
		t.Fatalf("Key = %q", k)
	}
}

func itoa(n int) string {
	s, _ := argPart(n)
	return s
}

func TestArgsCollectionKeys(t *testing.T) {
	coll, err := NewArgsCollection(ArgsOptions[int]{
		Prefix:   "KEY",
		Provider: newMemProvider(),
		Codec:    c.JSON[int]{},
		Locks:    NewKeyLocks(),
	})
	if err != nil {
		t.Fatalf("NewArgsCollection: %v", err)
	}

	var nilPtr *int
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	cases := []struct {
		args []any
		want string
	}{
		{[]any{1}, "KEY_1"},
		{[]any{1, nil, "x"}, "KEY_1_null_x"},
		{[]any{nilPtr}, "KEY_null"},
		{[]any{"null"}, `KEY_"null"`},
		{[]any{true, 1.5, uint8(7)}, "KEY_true_1.5_7"},
		{[]any{at}, "KEY_2024-01-02T02:04:05Z"},
		{[]any{time.Second}, "KEY_1s"},
		{[]any{map[string]int{"asd": 1}}, `KEY_{"asd":1}`},
		{[]any{[]string{"a", "b"}}, `KEY_["a","b"]`},
		{nil, "KEY_"},
	}
	for _, tc := range cases {
		got, err := coll.Key(tc.args...)
		if err != nil {
			t.Fatalf("Key(%v): %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("Key(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}

	if _, err := coll.Key(1, make(chan int)); err == nil {
		t.Fatalf("expected error for an unencodable arg")
	}
}

func TestArgsCollectionGetClear(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	coll, err := NewArgsCollection(ArgsOptions[int]{
		Prefix:   "sum",
		Provider: mp,
		Codec:    c.JSON[int]{},
		Locks:    NewKeyLocks(),
	})
	if err != nil {
		t.Fatalf("NewArgsCollection: %v", err)
	}

	var loads int
	sum := func(_ context.Context, args []any) (int, error) {
		loads++
		return args[0].(int) + args[1].(int), nil
	}

	if v, err := coll.GetData(ctx, sum, 2, 3); err != nil || v != 5 {
		t.Fatalf("GetData(2,3) = %d, %v", v, err)
	}
	if v, _ := coll.GetData(ctx, sum, 2, 3); v != 5 {
		t.Fatalf("cached GetData(2,3) = %d", v)
	}
	if v, _ := coll.GetData(ctx, sum, 3, 2); v != 5 {
		t.Fatalf("GetData(3,2) = %d", v)
	}
	if loads != 2 {
		t.Fatalf("loads = %d, want 2 (order matters)", loads)
	}

	if err := coll.SetData(ctx, 100, 1, 1); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	if v, _ := coll.GetData(ctx, sum, 1, 1); v != 100 {
		t.Fatalf("GetData(1,1) = %d, want seeded 100", v)
	}

	if err := coll.Clear(ctx, 2, 3); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if mp.has("sum_2_3") || !mp.has("sum_3_2") {
		t.Fatalf("Clear removed the wrong entries")
	}
	if err := coll.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if mp.has("sum_3_2") || mp.has("sum_1_1") {
		t.Fatalf("ClearAll left entries behind")
	}
}

func TestLoadingCollection(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	load, loads := counter[string]()
	lc, err := NewLoadingCollection(CollectionOptions[int, string]{
		Prefix:   "page",
		Provider: mp,
		Codec:    c.JSON[int]{},
		Locks:    NewKeyLocks(),
	}, load, NewSemaphore(1))
	if err != nil {
		t.Fatalf("NewLoadingCollection: %v", err)
	}

	a1, _ := lc.GetData(ctx, "a")
	b1, _ := lc.GetData(ctx, "b")
	a2, _ := lc.GetData(ctx, "a")
	if a1 != 1 || b1 != 2 || a2 != 1 {
		t.Fatalf("got a=%d b=%d a=%d, want 1 2 1", a1, b1, a2)
	}
	if *loads != 2 {
		t.Fatalf("loads = %d, want 2", *loads)
	}
	if k, _ := lc.Key("a"); k != "page_a" || lc.Prefix() != "page" {
		t.Fatalf("Key = %q, Prefix = %q", k, lc.Prefix())
	}

	if err := lc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if v, _ := lc.GetData(ctx, "a"); v != 3 {
		t.Fatalf("GetData after ClearAll = %d, want 3", v)
	}

	if _, err := NewLoadingCollection[int, string](CollectionOptions[int, string]{Prefix: "p", Provider: mp, Codec: c.JSON[int]{}}, nil, nil); !errors.Is(err, ErrNilLoader) {
		t.Fatalf("err = %v, want ErrNilLoader", err)
	}
}
