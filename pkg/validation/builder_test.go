package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/beevik/etree"
	"github.com/jonboulle/clockwork"
	"github.com/platinummonkey/casserver/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

var buildTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestBuilder(releasers ...AttributeReleaser) *ResponseBuilder {
	return NewResponseBuilder(BuilderConfig{
		Clock:     clockwork.NewFakeClockAt(buildTime),
		Releasers: releasers,
	})
}

func parseResponse(t require.TestingT, out []byte) *etree.Element {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	require.NotNil(t, root)
	return root
}

func TestResponseBuilder_Build_Golden(t *testing.T) {
	builder := newTestBuilder(StaticAttributes{{Name: "tenant", Values: []string{"acme"}}})

	out, err := builder.Build(Model{
		ModelKeyPrincipal: "alice",
		ModelKeyPgtIou:    "PGTIOU-1",
		ModelKeyChainedAuthentications: []Authentication{
			{Principal: Principal{ID: "proxyB"}},
		},
	})
	require.NoError(t, err)

	want := `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>alice</cas:user>
    <cas:proxyGrantingTicket>PGTIOU-1</cas:proxyGrantingTicket>
    <cas:proxies>
      <cas:proxy>proxyB</cas:proxy>
    </cas:proxies>
    <cas:attributes>
      <cas:isFromNewLogin>true</cas:isFromNewLogin>
      <cas:authenticationDate>2024-05-01T10:00:00.000Z</cas:authenticationDate>
      <cas:longTermAuthenticationRequestTokenUsed>true</cas:longTermAuthenticationRequestTokenUsed>
      <cas:tenant>acme</cas:tenant>
    </cas:attributes>
  </cas:authenticationSuccess>
</cas:serviceResponse>`
	assert.Equal(t, want, string(out))
}

func TestResponseBuilder_Build(t *testing.T) {
	builder := newTestBuilder()

	t.Run("full model", func(t *testing.T) {
		out, err := builder.Build(Model{
			ModelKeyPrincipal: "alice",
			ModelKeyPgtIou:    "PGTIOU-1",
			ModelKeyChainedAuthentications: []Authentication{
				{Principal: Principal{ID: "proxyB"}},
			},
		})
		require.NoError(t, err)

		compact := compactXML(string(out))
		assert.Contains(t, compact, "<cas:user>alice</cas:user>")
		assert.Contains(t, compact, "<cas:proxyGrantingTicket>PGTIOU-1</cas:proxyGrantingTicket>")
		assert.Contains(t, compact, "<cas:proxies><cas:proxy>proxyB</cas:proxy></cas:proxies>")
		assert.False(t, strings.HasPrefix(string(out), "<?xml"))
	})

	t.Run("principal only", func(t *testing.T) {
		out, err := builder.Build(Model{ModelKeyPrincipal: "bob"})
		require.NoError(t, err)

		s := string(out)
		assert.Contains(t, s, "<cas:user>bob</cas:user>")
		assert.NotContains(t, s, "cas:proxyGrantingTicket")
		assert.NotContains(t, s, "cas:proxies")
		assert.Contains(t, s, "<cas:isFromNewLogin>true</cas:isFromNewLogin>")
		assert.Contains(t, s, "<cas:longTermAuthenticationRequestTokenUsed>true</cas:longTermAuthenticationRequestTokenUsed>")
	})

	t.Run("empty chain omits proxies", func(t *testing.T) {
		out, err := builder.Build(Model{
			ModelKeyPrincipal:              "bob",
			ModelKeyChainedAuthentications: []Authentication{},
		})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "cas:proxies")
	})

	t.Run("empty pgtIou omits ticket", func(t *testing.T) {
		out, err := builder.Build(Model{ModelKeyPrincipal: "bob", ModelKeyPgtIou: ""})
		require.NoError(t, err)
		assert.NotContains(t, string(out), "cas:proxyGrantingTicket")
	})

	t.Run("proxies keep chain order", func(t *testing.T) {
		out, err := builder.Build(Model{
			ModelKeyPrincipal: "alice",
			ModelKeyChainedAuthentications: []*Authentication{
				{Principal: Principal{ID: "https://c.example.com"}},
				{Principal: Principal{ID: "https://a.example.com"}},
				{Principal: Principal{ID: "https://b.example.com"}},
			},
		})
		require.NoError(t, err)

		root := parseResponse(t, out)
		var got []string
		for _, p := range root.FindElements("//cas:proxy") {
			got = append(got, p.Text())
		}
		assert.Equal(t, []string{"https://c.example.com", "https://a.example.com", "https://b.example.com"}, got)
	})

	t.Run("escapes text", func(t *testing.T) {
		out, err := builder.Build(Model{ModelKeyPrincipal: "a<b>&c"})
		require.NoError(t, err)
		assert.Contains(t, string(out), "<cas:user>a&lt;b&gt;&amp;c</cas:user>")

		root := parseResponse(t, out)
		assert.Equal(t, "a<b>&c", root.FindElement("//cas:user").Text())
	})

	t.Run("authentication date uses UTC", func(t *testing.T) {
		local := time.FixedZone("EST", -5*60*60)
		b := NewResponseBuilder(BuilderConfig{
			Clock: clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 5, 30, 0, 0, local)),
		})
		out, err := b.Build(Model{ModelKeyPrincipal: "alice"})
		require.NoError(t, err)
		assert.Contains(t, string(out), "<cas:authenticationDate>2024-05-01T10:30:00.000Z</cas:authenticationDate>")
	})
}

func TestResponseBuilder_Build_Errors(t *testing.T) {
	builder := newTestBuilder()

	tests := []struct {
		name    string
		model   Model
		wantErr error
	}{
		{"empty model", Model{}, ErrMissingPrincipal},
		{"nil model", nil, ErrMissingPrincipal},
		{"empty principal", Model{ModelKeyPrincipal: Principal{}}, ErrMissingPrincipal},
		{"principal wrong type", Model{ModelKeyPrincipal: 7}, ErrInvalidModelData},
		{"pgtIou wrong type", Model{ModelKeyPrincipal: "a", ModelKeyPgtIou: 1}, ErrInvalidModelData},
		{"chain wrong type", Model{ModelKeyPrincipal: "a", ModelKeyChainedAuthentications: "x"}, ErrInvalidModelData},
		{
			"chain entry without principal",
			Model{ModelKeyPrincipal: "a", ModelKeyChainedAuthentications: []Authentication{{}}},
			ErrInvalidModelData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := builder.Build(tt.model)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestResponseBuilder_Build_RejectsUnencodableText(t *testing.T) {
	tests := []struct {
		name      string
		model     Model
		releasers []AttributeReleaser
	}{
		{"control character in user", Model{ModelKeyPrincipal: "a\x01b"}, nil},
		{"other control character in user", Model{ModelKeyPrincipal: "a\x02b"}, nil},
		{"invalid utf-8 in user", Model{ModelKeyPrincipal: "a\xffb"}, nil},
		{"carriage return in user", Model{ModelKeyPrincipal: "a\rb"}, nil},
		{"noncharacter in user", Model{ModelKeyPrincipal: "a\uFFFEb"}, nil},
		{"nul in pgtIou", Model{ModelKeyPrincipal: "alice", ModelKeyPgtIou: "PGTIOU-\x00"}, nil},
		{
			"control character in proxy",
			Model{
				ModelKeyPrincipal:              "alice",
				ModelKeyChainedAuthentications: []Authentication{{Principal: Principal{ID: "proxy\x1f"}}},
			},
			nil,
		},
		{
			"invalid utf-8 in attribute value",
			Model{ModelKeyPrincipal: "alice"},
			[]AttributeReleaser{StaticAttributes{{Name: "email", Values: []string{"ok", "al\xc3ce"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestBuilder(tt.releasers...).Build(tt.model)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, ErrInvalidModelData)
		})
	}
}

func TestResponseBuilder_Build_KeepsWhitespace(t *testing.T) {
	user := " a\tb\u00a0c\nd "
	out, err := newTestBuilder().Build(Model{ModelKeyPrincipal: user})
	require.NoError(t, err)

	assert.Equal(t, user, parseResponse(t, out).FindElement("//cas:user").Text())
}

func TestResponseBuilder_Releasers(t *testing.T) {
	model := Model{ModelKeyPrincipal: &Principal{
		ID: "alice",
		Attributes: map[string][]string{
			"email":    {"alice@example.com"},
			"memberOf": {"admins", "staff"},
			"secret":   {"hidden"},
		},
	}}

	t.Run("principal attributes in allow-list order", func(t *testing.T) {
		builder := newTestBuilder(PrincipalAttributeReleaser{Allowed: []string{"memberOf", "email", "missing"}})
		out, err := builder.Build(model)
		require.NoError(t, err)

		attrs := parseResponse(t, out).FindElement("//cas:attributes")
		require.NotNil(t, attrs)

		var names, values []string
		for _, el := range attrs.ChildElements()[3:] {
			names = append(names, el.Tag)
			values = append(values, el.Text())
		}
		assert.Equal(t, []string{"memberOf", "memberOf", "email"}, names)
		assert.Equal(t, []string{"admins", "staff", "alice@example.com"}, values)
		assert.NotContains(t, string(out), "hidden")
	})

	t.Run("reserved name", func(t *testing.T) {
		builder := newTestBuilder(StaticAttributes{{Name: "isFromNewLogin", Values: []string{"false"}}})
		_, err := builder.Build(model)
		assert.ErrorIs(t, err, ErrInvalidModelData)
	})

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", "1abc", "a b", "cas:x", "<x>"} {
			builder := newTestBuilder(StaticAttributes{{Name: name, Values: []string{"v"}}})
			_, err := builder.Build(model)
			assert.ErrorIs(t, err, ErrInvalidModelData, "name %q", name)
		}
	})

	t.Run("duplicate across releasers", func(t *testing.T) {
		builder := newTestBuilder(
			StaticAttributes{{Name: "email", Values: []string{"x"}}},
			PrincipalAttributeReleaser{Allowed: []string{"email"}},
		)
		_, err := builder.Build(model)
		assert.ErrorIs(t, err, ErrInvalidModelData)
	})

	t.Run("releaser error is returned", func(t *testing.T) {
		builder := newTestBuilder(PrincipalAttributeReleaser{Allowed: []string{"email"}})
		_, err := builder.Build(Model{})
		assert.ErrorIs(t, err, ErrMissingPrincipal)
	})

	t.Run("attribute without values emits nothing", func(t *testing.T) {
		builder := newTestBuilder(StaticAttributes{{Name: "empty"}})
		out, err := builder.Build(model)
		require.NoError(t, err)
		assert.NotContains(t, string(out), "cas:empty")
	})
}

func TestResponseBuilder_BuildFailure(t *testing.T) {
	builder := newTestBuilder()

	out, err := builder.BuildFailure(FailureInvalidService, "Service [https://x] is not allowed")
	require.NoError(t, err)

	want := `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationFailure code="INVALID_SERVICE">Service [https://x] is not allowed</cas:authenticationFailure>
</cas:serviceResponse>`
	assert.Equal(t, want, string(out))

	_, err = builder.BuildFailure("", "no code")
	assert.ErrorIs(t, err, ErrInvalidModelData)
}

func TestMarshaller_Marshal_Errors(t *testing.T) {
	m := NewMarshaller(0)

	tests := []struct {
		name    string
		resp    *ServiceResponse
		wantErr error
	}{
		{"nil", nil, ErrMarshalFailure},
		{"neither variant", &ServiceResponse{}, ErrMarshalFailure},
		{
			"both variants",
			&ServiceResponse{Success: &AuthenticationSuccess{User: "a"}, Failure: &AuthenticationFailure{Code: FailureInternalError}},
			ErrMarshalFailure,
		},
		{"empty user", &ServiceResponse{Success: &AuthenticationSuccess{}}, ErrMissingPrincipal},
		{"empty failure code", &ServiceResponse{Failure: &AuthenticationFailure{}}, ErrInvalidModelData},
		{"control character in user", &ServiceResponse{Success: &AuthenticationSuccess{User: "a\x01b"}}, ErrInvalidModelData},
		{
			"invalid utf-8 in proxy",
			&ServiceResponse{Success: &AuthenticationSuccess{User: "a", Proxies: []string{"\xff"}}},
			ErrInvalidModelData,
		},
		{
			"control character in extension",
			&ServiceResponse{Success: &AuthenticationSuccess{
				User:       "a",
				Attributes: Attributes{Extensions: []Attribute{{Name: "uid", Values: []string{"\x07"}}}},
			}},
			ErrInvalidModelData,
		},
		{
			"control character in failure description",
			&ServiceResponse{Failure: &AuthenticationFailure{Code: FailureInvalidTicket, Description: "ST-\x1b"}},
			ErrInvalidModelData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Marshal(tt.resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMarshaller_Indent(t *testing.T) {
	out, err := NewMarshaller(4).Marshal(&ServiceResponse{Failure: &AuthenticationFailure{Code: FailureInvalidTicket}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n    <cas:authenticationFailure")
}

func TestResponseBuilder_Metrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	builder := NewResponseBuilder(BuilderConfig{
		Clock:   clockwork.NewFakeClockAt(buildTime),
		Metrics: metrics,
	})

	_, _ = builder.Build(Model{ModelKeyPrincipal: "alice"})
	_, _ = builder.Build(Model{ModelKeyPrincipal: "bob"})
	_, _ = builder.Build(Model{})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ResponseBuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResponseBuildsTotal.WithLabelValues("invalid_model")))
}

func TestResponseBuilder_Concurrent(t *testing.T) {
	builder := newTestBuilder(PrincipalAttributeReleaser{Allowed: []string{"uid"}})

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			user := fmt.Sprintf("user-%d", i)
			out, err := builder.Build(Model{
				ModelKeyPrincipal: Principal{ID: user, Attributes: map[string][]string{"uid": {user}}},
				ModelKeyChainedAuthentications: []Authentication{
					{Principal: Principal{ID: "proxy-" + user}},
				},
			})
			if err != nil {
				return err
			}

			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(out); err != nil {
				return err
			}
			if got := doc.FindElement("//cas:user").Text(); got != user {
				return fmt.Errorf("user = %q, want %q", got, user)
			}
			if got := doc.FindElement("//cas:proxy").Text(); got != "proxy-"+user {
				return fmt.Errorf("proxy = %q, want %q", got, "proxy-"+user)
			}
			if got := doc.FindElement("//cas:uid").Text(); got != user {
				return fmt.Errorf("uid = %q, want %q", got, user)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestResponseBuilderProperties(t *testing.T) {
	builder := newTestBuilder()
	textGen := rapid.StringOfN(rapid.RuneFrom([]rune{'\t'}, unicode.L, unicode.N, unicode.P, unicode.S, unicode.Zs), 1, 40, -1)

	rapid.Check(t, func(t *rapid.T) {
		user := textGen.Draw(t, "user")
		model := Model{ModelKeyPrincipal: user}

		iou := ""
		if rapid.Bool().Draw(t, "hasPgt") {
			iou = textGen.Draw(t, "pgtIou")
			model[ModelKeyPgtIou] = iou
		}

		proxies := rapid.SliceOfN(textGen, 0, 5).Draw(t, "proxies")
		chain := make([]Authentication, 0, len(proxies))
		for _, p := range proxies {
			chain = append(chain, Authentication{Principal: Principal{ID: p}})
		}
		model[ModelKeyChainedAuthentications] = chain

		out, err := builder.Build(model)
		require.NoError(t, err)

		root := parseResponse(t, out)
		assert.Equal(t, "cas:serviceResponse", root.FullTag())
		assert.Equal(t, Namespace, root.NamespaceURI())

		success := root.FindElement("cas:authenticationSuccess")
		require.NotNil(t, success)
		assert.Equal(t, Namespace, success.NamespaceURI())
		assert.Equal(t, user, success.FindElement("cas:user").Text())

		pgt := success.FindElement("cas:proxyGrantingTicket")
		if iou == "" {
			assert.Nil(t, pgt)
		} else {
			require.NotNil(t, pgt)
			assert.Equal(t, iou, pgt.Text())
		}

		var got []string
		for _, p := range success.FindElements("cas:proxies/cas:proxy") {
			got = append(got, p.Text())
		}
		if len(proxies) == 0 {
			assert.Nil(t, success.FindElement("cas:proxies"))
		} else {
			assert.Equal(t, proxies, got)
		}

		date := success.FindElement("cas:attributes/cas:authenticationDate")
		require.NotNil(t, date)
		parsed, err := time.Parse(time.RFC3339, date.Text())
		require.NoError(t, err)
		assert.True(t, parsed.Equal(buildTime))
	})
}

func TestResponseBuilderProperties_DisallowedText(t *testing.T) {
	textGen := rapid.StringOfN(rapid.RuneFrom(nil, unicode.L, unicode.N, unicode.Zs), 0, 10, -1)
	controlGen := rapid.Map(
		rapid.RuneFrom(nil, unicode.Cc).Filter(func(r rune) bool {
			return r < 0x20 && r != '\t' && r != '\n'
		}),
		func(r rune) string { return string(r) },
	)
	badGen := rapid.OneOf(controlGen, rapid.SampledFrom([]string{"\xff", "\xc3", "\xed\xa0\x80", "\uFFFE", "\uFFFF"}))

	rapid.Check(t, func(t *rapid.T) {
		value := "x" + textGen.Draw(t, "prefix") + badGen.Draw(t, "bad") + textGen.Draw(t, "suffix")

		model := Model{ModelKeyPrincipal: "alice"}
		var releasers []AttributeReleaser
		switch rapid.SampledFrom([]string{"user", "pgtIou", "proxy", "attribute"}).Draw(t, "field") {
		case "user":
			model[ModelKeyPrincipal] = value
		case "pgtIou":
			model[ModelKeyPgtIou] = value
		case "proxy":
			model[ModelKeyChainedAuthentications] = []Authentication{{Principal: Principal{ID: value}}}
		case "attribute":
			releasers = append(releasers, StaticAttributes{{Name: "uid", Values: []string{value}}})
		}

		out, err := newTestBuilder(releasers...).Build(model)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrInvalidModelData)
	})
}

// compactXML removes indentation between elements
func compactXML(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}
