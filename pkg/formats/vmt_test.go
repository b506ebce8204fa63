package formats

import (
	"errors"
	"testing"

	"github.com/kohachiro/MashFormMDL/pkg/formats/formatstest"
)

const testScript = `"VertexLitGeneric"
{
	// base layer
	"$basetexture" "models/props/Crate01"
	"$alpha" 0.5
	$BumpMap models/props/crate01_normal
	"$surfaceprop" "wood"
	"$unknownkey" "ignored"
	"$color" "[1 0.5 0.25]"
	"Proxies"
	{
		"AnimatedTexture" { "animatedtextureframerate" 30 }
	}
}
`

func TestParseVMT(t *testing.T) {
	m, err := ParseVMT([]byte(testScript))
	if err != nil {
		t.Fatalf("ParseVMT failed: %v", err)
	}

	if m.Shader != ShaderVertexLitGeneric {
		t.Errorf("expected VertexLitGeneric, got %s", m.Shader)
	}

	tests := []struct {
		prop ShaderProperty
		want string
	}{
		{PropBaseTexture, "models/props/Crate01"},
		{PropAlpha, "0.5"},
		{PropBumpMap, "models/props/crate01_normal"},
		{PropSurfaceProp, "wood"},
		{PropColor, "[1 0.5 0.25]"},
	}
	for _, tt := range tests {
		got, ok := m.Property(tt.prop)
		if !ok || got != tt.want {
			t.Errorf("%s: expected %q, got %q (present %v)", tt.prop, tt.want, got, ok)
		}
	}
	if len(m.Properties) != len(tests) {
		t.Errorf("expected %d properties, got %d: %v", len(tests), len(m.Properties), m.Properties)
	}
	if m.BaseTexture() != "models/props/Crate01" {
		t.Errorf("unexpected base texture %q", m.BaseTexture())
	}
}

func TestParseVMT_ShaderAndRepeats(t *testing.T) {
	tests := []struct {
		name   string
		script string
		shader ShaderName
		base   string
	}{
		{"first shader wins", `UnlitGeneric { "$basetexture" a } LightmappedGeneric`, ShaderUnlitGeneric, "a"},
		{"case insensitive", `"worldVERTEXtransition" { "$BASETEXTURE" "b" }`, ShaderWorldVertexTransition, "b"},
		{"last occurrence wins", `SpriteCard { $basetexture one $basetexture two }`, ShaderSpriteCard, "two"},
		{"no shader", `{ "$basetexture" "c" }`, ShaderUnknown, "c"},
		{"no braces between tokens", `UnlitTwoTexture{"$basetexture""d"}`, ShaderUnlitTwoTexture, "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseVMT([]byte(tt.script))
			if err != nil {
				t.Fatalf("ParseVMT failed: %v", err)
			}
			if m.Shader != tt.shader {
				t.Errorf("expected shader %s, got %s", tt.shader, m.Shader)
			}
			if m.BaseTexture() != tt.base {
				t.Errorf("expected base texture %q, got %q", tt.base, m.BaseTexture())
			}
		})
	}
}

func TestParseVMT_UTF16(t *testing.T) {
	m, err := ParseVMT(formatstest.UTF16LE(`"UnlitGeneric" { "$basetexture" "effects/glow" "$additive" 1 }`))
	if err != nil {
		t.Fatalf("ParseVMT failed: %v", err)
	}
	if m.Shader != ShaderUnlitGeneric {
		t.Errorf("expected UnlitGeneric, got %s", m.Shader)
	}
	if m.BaseTexture() != "effects/glow" {
		t.Errorf("expected effects/glow, got %q", m.BaseTexture())
	}
	if v, _ := m.Property(PropAdditive); v != "1" {
		t.Errorf("expected additive 1, got %q", v)
	}
}

func TestParseVMT_Errors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unterminated quote", `"VertexLitGeneric" { "$basetexture" "models/foo }`},
		{"quote open at end of line", "\"VertexLitGeneric\" {\n\"$basetexture\" \"models/foo\n\"$alpha\" \"0.5\"\n\"$surfaceprop\" \"metal\n}"},
		{"key without value", `"VertexLitGeneric" { "$basetexture"`},
		{"key before brace", `"VertexLitGeneric" { "$basetexture" }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVMT([]byte(tt.script))
			var ferr *Error
			if !errors.As(err, &ferr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ferr.Kind != KindParse || ferr.File != FileMaterial {
				t.Errorf("expected vmt parse error, got %s %s", ferr.File, ferr.Kind)
			}
		})
	}
}

func TestLookupProperty(t *testing.T) {
	if NumShaderProperties != 60 {
		t.Errorf("expected 60 properties, got %d", NumShaderProperties)
	}
	for p := range NumShaderProperties {
		got, ok := LookupProperty(p.String())
		if !ok || got != p {
			t.Errorf("LookupProperty(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if p, ok := LookupProperty("$WriteZ"); !ok || p != PropWriteZ {
		t.Errorf("expected $WriteZ to resolve case-insensitively")
	}
	if _, ok := LookupProperty("basetexture"); ok {
		t.Error("expected key without $ to be rejected")
	}
}
