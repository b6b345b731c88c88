package config

import "errors"

// defaultsProvider feeds a Config into koanf as its lowest layer.
type defaultsProvider struct {
	cfg Config
}

func newDefaultsProvider(cfg Config) *defaultsProvider {
	return &defaultsProvider{cfg: cfg}
}

func (p *defaultsProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: defaults provider does not support ReadBytes")
}

func (p *defaultsProvider) Read() (map[string]interface{}, error) {
	c := p.cfg
	m := map[string]interface{}{
		"retention":   c.Retention,
		"policy":      c.Policy,
		"db":          c.DB,
		"scenarios":   c.Scenarios,
		"params_repo": c.ParamsRepo,
		"params_file": c.ParamsFile,
		"repos_dir":   c.ReposDir,
		"log": map[string]interface{}{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
	if len(c.Weights) > 0 {
		w := make([]interface{}, len(c.Weights))
		for i, v := range c.Weights {
			w[i] = v
		}
		m["weights"] = w
	}
	return m, nil
}
