package registry

import "fmt"

// vectorPalette is the fixed palette a newly registered vector map's fill
// colour is picked from, matching spec.md §4.9's "synthesises a default
// line+polygon style with a randomly picked fill colour from a fixed
// palette". Selection is round-robin on registration count rather than
// true randomness: nothing here is adversarial, and round-robin gives
// distinct colours to successively registered maps instead of repeats.
var vectorPalette = []string{"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4", "#46f0f0"}

// synthesizeVectorStyle builds a minimal Mapnik stylesheet for a newly
// registered vector source: a single OGR-backed layer at path styled with
// a default polygon fill and line stroke, grounded on the shape of
// vector/mod.rs's Map/Style/Layer/Rule/Symbolizer XML (emitted directly as
// a string here, rather than round-tripped through that struct tree,
// since this server only ever feeds the XML forward to Mapnik and never
// parses a caller-supplied stylesheet back out).
func synthesizeVectorStyle(name, path string, paletteIndex int) string {
	fill := vectorPalette[paletteIndex%len(vectorPalette)]
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<Map srs="+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs +over">
	<Style name="%s">
		<Rule>
			<PolygonSymbolizer fill="%s" fill-opacity="0.6"/>
			<LineSymbolizer stroke="%s" stroke-opacity="1" stroke-width="1"/>
		</Rule>
	</Style>
	<Layer name="%s" srs="epsg:4326">
		<StyleName>%s</StyleName>
		<Datasource>
			<Parameter name="file">%s</Parameter>
			<Parameter name="type">ogr</Parameter>
			<Parameter name="layer_by_index">0</Parameter>
		</Datasource>
	</Layer>
</Map>`, name, fill, fill, name, name, path)
}
