package weather

import "encoding/json"

// DefaultIndex is the index documents are written to.
const DefaultIndex = "weatherdata"

// Field is one entry of an index mapping.
type Field struct {
	Type       string           `json:"type,omitempty"`
	Format     string           `json:"format,omitempty"`
	Properties map[string]Field `json:"properties,omitempty"`
}

// IndexSchema describes the settings and field mapping an index is created with.
type IndexSchema struct {
	Shards     int
	Replicas   int
	Properties map[string]Field
}

func typed(t string) Field { return Field{Type: t} }

func object(props map[string]Field) Field { return Field{Properties: props} }

// DefaultIndexSchema returns the schema for weather documents:
// one shard, no replicas and a mapping that mirrors Document.
func DefaultIndexSchema() IndexSchema {
	precipitation := object(map[string]Field{
		"1h": typed("float"),
		"3h": typed("float"),
	})

	return IndexSchema{
		Shards:   1,
		Replicas: 0,
		Properties: map[string]Field{
			"coord": typed("geo_point"),
			"weather": {
				Type: "nested",
				Properties: map[string]Field{
					"id":          typed("integer"),
					"main":        typed("keyword"),
					"description": typed("keyword"),
					"icon":        typed("keyword"),
				},
			},
			"base": typed("keyword"),
			"dataPoints": object(map[string]Field{
				"temp":       typed("float"),
				"feels_like": typed("float"),
				"temp_min":   typed("float"),
				"temp_max":   typed("float"),
				"pressure":   typed("integer"),
				"humidity":   typed("integer"),
				"sea_level":  typed("integer"),
				"grnd_level": typed("integer"),
				"wind": object(map[string]Field{
					"speed": typed("float"),
					"deg":   typed("integer"),
					"gust":  typed("float"),
				}),
				"visibility": typed("integer"),
				"clouds": object(map[string]Field{
					"all": typed("integer"),
				}),
				"rain": precipitation,
				"snow": precipitation,
			}),
			// dt is unix seconds as sent by the provider.
			"dt":       {Type: "date", Format: "epoch_second"},
			"sys":      typed("object"),
			"timezone": typed("integer"),
			"id":       typed("integer"),
			"name":     typed("keyword"),
			"cod":      typed("integer"),
		},
	}
}

type indexSettings struct {
	NumberOfShards   int `json:"number_of_shards"`
	NumberOfReplicas int `json:"number_of_replicas"`
}

type indexMappings struct {
	Properties map[string]Field `json:"properties"`
}

type createIndexBody struct {
	Settings indexSettings `json:"settings"`
	Mappings indexMappings `json:"mappings"`
}

// Body renders the create-index request body.
func (s IndexSchema) Body() ([]byte, error) {
	return json.Marshal(createIndexBody{
		Settings: indexSettings{
			NumberOfShards:   s.Shards,
			NumberOfReplicas: s.Replicas,
		},
		Mappings: indexMappings{Properties: s.Properties},
	})
}
