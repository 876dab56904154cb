package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         5000, // 5 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		AllowCellular:   BoolPtr(true),
		LogLevel:        "none",
		Output:          "console",
		NoColor:         BoolPtr(false),
		Repeat:          1,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == defaults.BaseURL &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.Proxy == defaults.Proxy &&
		c.GetAllowCellular() == defaults.GetAllowCellular() &&
		len(c.Headers) == 0 &&
		c.LogLevel == defaults.LogLevel &&
		c.Output == defaults.Output &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.Rate == defaults.Rate &&
		c.Repeat == defaults.Repeat &&
		c.Fixtures == nil
}
