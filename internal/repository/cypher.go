package repository

import (
	"fmt"
	"strings"

	"hybridsearch/internal/model"
)

// Graph schema:
//
//	(:Inmueble)-[:TIENE]->(:Caracteristica {nombre})
//	(:Inmueble)-[:UBICADO_EN]->(:Zona {nombre})
const propertyProjection = `
OPTIONAL MATCH (i)-[:UBICADO_EN]->(z:Zona)
WITH i, head(collect(z.nombre)) AS zona
OPTIONAL MATCH (i)-[:TIENE]->(c:Caracteristica)
WITH i, zona, collect(DISTINCT c.nombre) AS caracteristicas`

const propertyColumns = `toString(i.id) AS id,
       i.precio AS precio,
       i.habitaciones AS habitaciones,
       i.metros AS metros,
       i.tipo_vivienda AS tipo_vivienda,
       i.url AS url,
       i.planta AS planta,
       i.luminosidad AS luminosidad,
       i.exterior_interior AS exterior_interior,
       i.reforma AS reforma,
       zona,
       caracteristicas`

// buildFindQuery translates a predicate into Cypher. Every constraint is a
// parameter; only clause structure is interpolated.
func buildFindQuery(q model.FindQuery) (string, map[string]interface{}) {
	p := q.Predicate
	var where []string
	params := map[string]interface{}{}

	addRange := func(field, name string, r model.Range) {
		if r.Min != nil {
			where = append(where, fmt.Sprintf("i.%s >= $%s_min", field, name))
			params[name+"_min"] = *r.Min
		}
		if r.Max != nil {
			where = append(where, fmt.Sprintf("i.%s <= $%s_max", field, name))
			params[name+"_max"] = *r.Max
		}
	}
	addRange("precio", "price", p.Price)
	addRange("habitaciones", "rooms", p.Rooms)
	addRange("metros", "area", p.Area)

	if p.TypeEquals != "" {
		where = append(where, "toLower(trim(i.tipo_vivienda)) = $property_type")
		params["property_type"] = strings.ToLower(strings.TrimSpace(p.TypeEquals))
	}

	for n, feature := range p.RequiredFeatures {
		key := fmt.Sprintf("feature_%d", n)
		where = append(where, fmt.Sprintf("EXISTS { MATCH (i)-[:TIENE]->(:Caracteristica {nombre: $%s}) }", key))
		params[key] = feature
	}

	if len(p.Zones) > 0 {
		zones := make([]string, len(p.Zones))
		for n, z := range p.Zones {
			zones[n] = strings.ToLower(z)
		}
		where = append(where, "EXISTS { MATCH (i)-[:UBICADO_EN]->(zf:Zona) WHERE ANY(pz IN $zones WHERE toLower(zf.nombre) CONTAINS pz) }")
		params["zones"] = zones
	}

	if q.OnlyIDs != nil {
		where = append(where, "toString(i.id) IN $only_ids")
		params["only_ids"] = q.OnlyIDs
	}

	hints := q.HintIDs
	if hints == nil {
		hints = []string{}
	}
	params["hint_ids"] = hints
	params["bonus"] = q.Bonus
	params["limit"] = int64(q.Limit)

	var b strings.Builder
	b.WriteString("MATCH (i:Inmueble)")
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, "\n  AND "))
	}
	b.WriteString(propertyProjection)
	b.WriteString("\nRETURN ")
	b.WriteString(propertyColumns)
	b.WriteString(",\n       CASE WHEN toString(i.id) IN $hint_ids THEN $bonus ELSE 0.0 END AS bonus_semantico")
	b.WriteString("\nORDER BY bonus_semantico DESC, precio ASC, id ASC")
	b.WriteString("\nLIMIT $limit")

	return b.String(), params
}

func buildGetQuery(id string) (string, map[string]interface{}) {
	query := "MATCH (i:Inmueble) WHERE toString(i.id) = $id" +
		propertyProjection +
		"\nRETURN " + propertyColumns +
		"\nLIMIT 1"
	return query, map[string]interface{}{"id": id}
}
