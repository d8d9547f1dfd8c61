package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Reader.MaxAnswerLength == 0 {
		cfg.Reader.MaxAnswerLength = 15
	}
	if cfg.Reader.MaxAnswers == 0 {
		cfg.Reader.MaxAnswers = 3
	}
	if cfg.Model.Backend == "" {
		cfg.Model.Backend = "mock"
	}
	if cfg.Model.Dimensions == 0 {
		cfg.Model.Dimensions = 384
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = 512
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 1024
	}
}
