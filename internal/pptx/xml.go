package pptx

import "text/template"

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const pmlNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

var xmlTemplates = template.Must(template.New("pptx").
	Funcs(template.FuncMap{"esc": escapeXML}).
	Parse(`
{{- define "contentTypes" -}}` + xmlHeader +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`{{range .Defaults}}<Default Extension="{{esc .Key}}" ContentType="{{esc .ContentType}}"/>{{end}}` +
		`{{range .Overrides}}<Override PartName="/{{esc .Key}}" ContentType="{{esc .ContentType}}"/>{{end}}` +
		`</Types>{{end}}

{{- define "rels" -}}` + xmlHeader +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`{{range .}}<Relationship Id="{{.ID}}" Type="{{.Type}}" Target="{{esc .Target}}"/>{{end}}` +
		`</Relationships>{{end}}

{{- define "presentation" -}}` + xmlHeader +
		`<p:presentation ` + pmlNamespaces + ` saveSubsetFonts="1">` +
		`<p:sldMasterIdLst>{{range .Masters}}<p:sldMasterId id="{{.ID}}" r:id="{{.RelID}}"/>{{end}}</p:sldMasterIdLst>` +
		`{{if .Slides}}<p:sldIdLst>{{range .Slides}}<p:sldId id="{{.ID}}" r:id="{{.RelID}}"/>{{end}}</p:sldIdLst>{{end}}` +
		`<p:sldSz cx="{{.Width}}" cy="{{.Height}}"/>` +
		`<p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>{{end}}

{{- define "presProps" -}}` + xmlHeader +
		`<p:presentationPr ` + pmlNamespaces + `/>{{end}}

{{- define "viewProps" -}}` + xmlHeader +
		`<p:viewPr ` + pmlNamespaces + `><p:gridSpacing cx="76200" cy="76200"/></p:viewPr>{{end}}

{{- define "tableStyles" -}}` + xmlHeader +
		`<a:tblStyleLst xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" def="{5C22544A-7EE6-4342-B048-85BDC9FD1C3A}"/>{{end}}

{{- define "app" -}}` + xmlHeader +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" ` +
		`xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">` +
		`<Application>genai-slides</Application><Slides>{{.}}</Slides>` +
		`</Properties>{{end}}

{{- define "core" -}}` + xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>{{esc .Title}}</dc:title><dc:creator>{{esc .Author}}</dc:creator><cp:revision>1</cp:revision>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:modified>` +
		`</cp:coreProperties>{{end}}

{{- define "slide" -}}` + xmlHeader +
		`<p:sld ` + pmlNamespaces + `><p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		`{{range .Shapes}}{{if eq .Kind "pic"}}{{template "pic" .}}{{else}}{{template "sp" .}}{{end}}{{end}}` +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>{{end}}

{{- define "sp" -}}` +
		`<p:sp><p:nvSpPr><p:cNvPr id="{{.ID}}" name="{{esc .Name}}"/>` +
		`{{if eq .Kind "ph"}}<p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="{{.PhType}}"{{if .PhIdx}} idx="{{.PhIdx}}"{{end}}/></p:nvPr>` +
		`{{else}}<p:cNvSpPr txBox="1"/><p:nvPr/>{{end}}</p:nvSpPr>` +
		`{{if eq .Kind "ph"}}<p:spPr/><p:txBody><a:bodyPr/>` +
		`{{else}}<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.W}}" cy="{{.H}}"/></a:xfrm>` +
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>` +
		`<p:txBody><a:bodyPr wrap="{{if .WordWrap}}square{{else}}none{{end}}" rtlCol="0"/>{{end}}` +
		`<a:lstStyle/>{{range .Paragraphs}}{{template "p" .}}{{else}}<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>{{end}}` +
		`</p:txBody></p:sp>{{end}}

{{- define "p" -}}` +
		`<a:p>{{if .HasPPr}}<a:pPr{{if .Bullet}} marL="{{.MarL}}" indent="{{.Indent}}"{{end}}{{if .Level}} lvl="{{.Level}}"{{end}}{{if .Align}} algn="{{.Align}}"{{end}}>` +
		`{{if .Bullet}}<a:buFont typeface="Arial"/><a:buChar char="&#8226;"/>{{end}}</a:pPr>{{end}}` +
		`{{if .Text}}<a:r><a:rPr lang="en-US"{{if .Size}} sz="{{.Size}}"{{end}}{{if .Bold}} b="{{.Bold}}"{{end}} dirty="0"/><a:t>{{esc .Text}}</a:t></a:r>{{end}}` +
		`<a:endParaRPr lang="en-US"{{if .Size}} sz="{{.Size}}"{{end}} dirty="0"/></a:p>{{end}}

{{- define "pic" -}}` +
		`<p:pic><p:nvPicPr><p:cNvPr id="{{.ID}}" name="{{esc .Name}}" descr="{{esc .Descr}}"/>` +
		`<p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="{{.RelID}}"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr><a:xfrm><a:off x="{{.X}}" y="{{.Y}}"/><a:ext cx="{{.W}}" cy="{{.H}}"/></a:xfrm>` +
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>{{end}}`))
