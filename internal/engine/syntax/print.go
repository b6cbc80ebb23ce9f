package syntax

import "strings"

// FormatTrait renders an interface declaration as Rust source.
func FormatTrait(d *TraitDecl) string {
	var b strings.Builder
	if d.Vis == VisPublic {
		b.WriteString("pub ")
	} else if d.Vis == VisRestricted {
		b.WriteString("pub(crate) ")
	}
	b.WriteString("trait ")
	b.WriteString(d.Name)
	writeGenerics(&b, d.Generics)
	b.WriteString(" {\n")
	for _, m := range d.Methods {
		b.WriteString("    ")
		b.WriteString(FormatMethod(m))
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// FormatMethod renders a method signature without a trailing semicolon.
func FormatMethod(m *Method) string {
	var b strings.Builder
	b.WriteString("fn ")
	b.WriteString(m.Name)
	writeGenerics(&b, m.Generics)
	b.WriteByte('(')
	params := make([]string, 0, len(m.Params)+1)
	if m.Receiver != ReceiverNone {
		params = append(params, m.Receiver.String())
	}
	for _, p := range m.Params {
		params = append(params, p.Name+": "+p.Type.String())
	}
	b.WriteString(strings.Join(params, ", "))
	b.WriteByte(')')
	if m.Result != nil && !IsUnit(m.Result) {
		b.WriteString(" -> ")
		b.WriteString(m.Result.String())
	}
	return b.String()
}

func writeGenerics(b *strings.Builder, generics []string) {
	if len(generics) == 0 {
		return
	}
	b.WriteByte('<')
	b.WriteString(strings.Join(generics, ", "))
	b.WriteByte('>')
}
