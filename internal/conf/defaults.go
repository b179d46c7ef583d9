package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default value of every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.dialect", "sqlite")
	v.SetDefault("database.dsn", "cocogo.db")
	v.SetDefault("database.table", "captures")

	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.usessl", true)

	v.SetDefault("resolver.channels", []map[string]any{{"camera": "cam", "frame": 0}})
	v.SetDefault("resolver.rps", 0.0)

	v.SetDefault("download.concurrency", 8)
	v.SetDefault("download.rps", 0.0)

	v.SetDefault("metrics.listen", "")
}
