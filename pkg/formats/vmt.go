package formats

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kohachiro/MashFormMDL/pkg/encoding"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// ShaderName identifies the shader a material script selects.
type ShaderName int

// Shader names.
const (
	ShaderUnknown ShaderName = iota - 1
	ShaderLightmappedGeneric
	ShaderSpriteCard
	ShaderUnlitGeneric
	ShaderUnlitTwoTexture
	ShaderVertexLitGeneric
	ShaderWorldTwoTextureBlend
	ShaderWorldVertexTransition
)

var shaderNames = map[string]ShaderName{
	"lightmappedgeneric":    ShaderLightmappedGeneric,
	"spritecard":            ShaderSpriteCard,
	"unlitgeneric":          ShaderUnlitGeneric,
	"unlittwotexture":       ShaderUnlitTwoTexture,
	"vertexlitgeneric":      ShaderVertexLitGeneric,
	"worldtwotextureblend":  ShaderWorldTwoTextureBlend,
	"worldvertextransition": ShaderWorldVertexTransition,
}

func (s ShaderName) String() string {
	switch s {
	case ShaderLightmappedGeneric:
		return "LightmappedGeneric"
	case ShaderSpriteCard:
		return "SpriteCard"
	case ShaderUnlitGeneric:
		return "UnlitGeneric"
	case ShaderUnlitTwoTexture:
		return "UnlitTwoTexture"
	case ShaderVertexLitGeneric:
		return "VertexLitGeneric"
	case ShaderWorldTwoTextureBlend:
		return "WorldTwoTextureBlend"
	case ShaderWorldVertexTransition:
		return "WorldVertexTransition"
	}
	return "Unknown"
}

// ShaderProperty is a recognized material parameter.
type ShaderProperty int

// Shader properties.
const (
	PropAdditive ShaderProperty = iota
	PropAlpha
	PropAlphaTest
	PropBaseTexture
	PropBaseTextureTransform
	PropBaseTextureOffset
	PropBaseTextureScale
	PropBaseTexture2
	PropBaseTextureTransform2
	PropBumpBaseTexture2WithBumpMap
	PropBumpMap
	PropBumpScale
	PropBumpFrame
	PropBumpTransform
	PropBumpOffset
	PropBumpMap2
	PropBumpFrame2
	PropNoDiffuseBumpLighting
	PropForceBump
	PropColor
	PropDecal
	PropDecalScale
	PropDetail
	PropDetailScale
	PropDetailFrame
	PropDetailAlphaMaskBaseTexture
	PropDetail2
	PropDetailScale2
	PropEnvMap
	PropEnvMapContrast
	PropEnvMapSaturation
	PropEnvMapTint
	PropEnvMapFrame
	PropEnvMapMode
	PropEnvMapSphere
	PropBaseTextureNoEnvMap
	PropBaseTexture2NoEnvMap
	PropEnvMapOptional
	PropEnvMapMask
	PropHalfLambert
	PropModel
	PropNoCull
	PropParallaxMap
	PropParallaxMapScale
	PropPhong
	PropPhongExponentTexture
	PropPhongExponent
	PropPhongBoost
	PropPhongFresnelRanges
	PropLightWarpTexture
	PropPhongAlbedoTint
	PropAmbientOcclusionTexture
	PropSelfIllum
	PropSelfIllumTint
	PropSurfaceProp
	PropTranslucent
	PropWriteZ
	PropVertexColor
	PropVertexAlpha
	PropNoFog

	NumShaderProperties
)

// propertyKeys is indexed by ShaderProperty.
var propertyKeys = [NumShaderProperties]string{
	"additive", "alpha", "alphatest", "basetexture", "basetexturetransform",
	"basetextureoffset", "basetexturescale", "basetexture2", "basetexturetransform2",
	"bumpbasetexture2withbumpmap", "bumpmap", "bumpscale", "bumpframe", "bumptransform",
	"bumpoffset", "bumpmap2", "bumpframe2", "nodiffusebumplighting", "forcebump",
	"color", "decal", "decalscale", "detail", "detailscale", "detailframe",
	"detail_alpha_mask_base_texture", "detail2", "detailscale2", "envmap",
	"envmapcontrast", "envmapsaturation", "envmaptint", "envmapframe", "envmapmode",
	"envmapsphere", "basetexturenoenvmap", "basetexture2noenvmap", "envmapoptional",
	"envmapmask", "halflambert", "model", "nocull", "parallaxmap", "parallaxmapscale",
	"phong", "phongexponenttexture", "phongexponent", "phongboost", "phongfresnelranges",
	"lightwarptexture", "phongalbedotint", "ambientocclusiontexture", "selfillum",
	"selfillumtint", "surfaceprop", "translucent", "writez", "vertexcolor",
	"vertexalpha", "nofog",
}

// propertyByKey maps "$key" in lower case to its property.
var propertyByKey map[string]ShaderProperty

// Key returns the script key of p without the leading '$'.
func (p ShaderProperty) Key() string {
	if p < 0 || p >= NumShaderProperties {
		return fmt.Sprintf("property(%d)", int(p))
	}
	return propertyKeys[p]
}

func (p ShaderProperty) String() string {
	return "$" + p.Key()
}

// LookupProperty returns the property named by a script key such as "$BaseTexture".
func LookupProperty(key string) (ShaderProperty, bool) {
	p, ok := propertyByKey[strings.ToLower(key)]
	return p, ok
}

// VMT is a parsed material script.
type VMT struct {
	Shader     ShaderName
	Properties map[ShaderProperty]string
}

// Property returns the value of p, if present.
func (m *VMT) Property(p ShaderProperty) (string, bool) {
	v, ok := m.Properties[p]
	return v, ok
}

// BaseTexture returns the $basetexture value or "".
func (m *VMT) BaseTexture() string {
	return m.Properties[PropBaseTexture]
}

const (
	tokenQuoted = iota
	tokenBare
	tokenBrace
	tokenComment
)

var vmtLexer *lexmachine.Lexer

func init() {
	propertyByKey = make(map[string]ShaderProperty, NumShaderProperties)
	for p, key := range propertyKeys {
		propertyByKey["$"+key] = ShaderProperty(p)
	}

	vmtLexer = lexmachine.NewLexer()
	vmtLexer.Add([]byte(`//[^\n]*`), vmtToken(tokenComment))
	vmtLexer.Add([]byte(`"[^"\r\n]*"`), vmtToken(tokenQuoted))
	vmtLexer.Add([]byte(`[{}]`), vmtToken(tokenBrace))
	vmtLexer.Add([]byte(`[^ \t\r\n"{}]+`), vmtToken(tokenBare))
	vmtLexer.Add([]byte(`( |\t|\r|\n)+`), skipToken)
	if err := vmtLexer.Compile(); err != nil {
		panic(fmt.Sprintf("compiling material script lexer: %v", err))
	}
}

func vmtToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skipToken(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

type vmtTok struct {
	typ   int
	value string
	line  int
}

func tokenizeVMT(text string) ([]vmtTok, error) {
	scanner, err := vmtLexer.Scanner([]byte(text))
	if err != nil {
		return nil, parseError("tokenizer", err)
	}

	var toks []vmtTok
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			var ui *machines.UnconsumedInput
			if errors.As(err, &ui) {
				return nil, parseError(fmt.Sprintf("line %d", ui.StartLine), fmt.Errorf("unterminated quoted string"))
			}
			return nil, parseError("tokenizer", err)
		}
		tok := itok.(*lexmachine.Token)
		if tok.Type == tokenComment {
			continue
		}
		value := tok.Value.(string)
		if tok.Type == tokenQuoted {
			value = value[1 : len(value)-1]
		}
		toks = append(toks, vmtTok{typ: tok.Type, value: value, line: tok.StartLine})
	}
	return toks, nil
}

// ParseVMT parses a material script. The first token naming a known shader sets
// the shader; a recognized "$key" token takes the following token as its value,
// the last occurrence winning. Everything else is ignored.
func ParseVMT(data []byte) (*VMT, error) {
	text, err := encoding.DecodeText(data)
	if err != nil {
		return nil, parseError("text", err)
	}
	toks, err := tokenizeVMT(text)
	if err != nil {
		return nil, err
	}

	m := &VMT{Shader: ShaderUnknown, Properties: make(map[ShaderProperty]string)}
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.typ == tokenBrace {
			continue
		}
		if m.Shader == ShaderUnknown {
			if s, ok := shaderNames[strings.ToLower(tok.value)]; ok {
				m.Shader = s
				continue
			}
		}
		p, ok := LookupProperty(tok.value)
		if !ok {
			continue
		}
		if i+1 >= len(toks) || toks[i+1].typ == tokenBrace {
			return nil, parseError(fmt.Sprintf("line %d", tok.line), fmt.Errorf("%s has no value", p))
		}
		i++
		m.Properties[p] = toks[i].value
	}
	return m, nil
}

// ParseVMTFile parses a material script from disk.
func ParseVMTFile(path string) (*VMT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindParse, FileMaterial, path, err)
	}
	return ParseVMT(data)
}
