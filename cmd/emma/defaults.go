package main

import "github.com/spf13/viper"

func initViperDefaults() {
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)

	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout_seconds", 30)

	viper.SetDefault("llm.base_url", "https://openrouter.ai/api")
	viper.SetDefault("llm.model", "deepseek/deepseek-chat")

	viper.SetDefault("search.num_results", 7)
	viper.SetDefault("search.locale", "ru")

	viper.SetDefault("server.mode", "poll")
	viper.SetDefault("server.addr", ":8080")
}
