package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-indexer/internal/store"
	"github.com/i474232898/weather-indexer/internal/weather"
	"github.com/i474232898/weather-indexer/internal/weather/providers"
)

const snowPayload = `{
  "coord": {"lon": 135.0, "lat": -82.8628},
  "weather": [{"id": 600, "main": "Snow", "description": "light snow", "icon": "13d"}],
  "base": "stations",
  "main": {"temp": 250.1, "feels_like": 243.0, "temp_min": 250.1, "temp_max": 250.1, "pressure": 1013, "humidity": 60},
  "dt": 1700000000,
  "sys": {},
  "timezone": 32400,
  "id": 0,
  "name": "",
  "cod": 200
}`

func TestOneTickIndexesOneDocument(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"lat": q.Get("lat"), "lon": q.Get("lon"), "appid": q.Get("appid")}
		_, _ = w.Write([]byte(snowPayload))
	}))
	defer srv.Close()

	at := weather.Coordinates{Lat: -82.8628, Lon: 135.0000}
	mem := store.NewMemoryStore(0)
	log := nop()

	prov := weather.NewProvisioner(mem, weather.DefaultIndex, weather.DefaultIndexSchema(), log)
	res, err := prov.Provision(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Created)

	schema, ok := mem.Schema(weather.DefaultIndex)
	require.True(t, ok)
	assert.Equal(t, 1, schema.Shards)
	assert.Equal(t, 0, schema.Replicas)
	assert.Equal(t, "geo_point", schema.Properties["coord"].Type)

	fetcher := providers.NewOpenWeatherProvider(srv.Client(), providers.OpenWeatherOptions{
		APIKey:  "key",
		BaseURL: srv.URL,
	})
	svc := weather.NewService(fetcher, mem, weather.DefaultIndex, at, log)
	s := New("*/1 * * * *", 0, svc, log)

	s.tick()

	assert.Equal(t, map[string]string{"lat": "-82.8628", "lon": "135", "appid": "key"}, query)

	docs, err := mem.Documents(weather.DefaultIndex)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.NotNil(t, docs[0].DataPoints.Temp)
	assert.Equal(t, 250.1, *docs[0].DataPoints.Temp)
	assert.Equal(t, "Snow", *docs[0].Weather[0].Main)
	assert.NotNil(t, docs[0].Sys)
	assert.Empty(t, docs[0].Sys)
	assert.Nil(t, docs[0].DataPoints.Wind, "no wind block in the response")

	last, ok := svc.LastCycle()
	require.True(t, ok)
	assert.True(t, last.OK())
}
