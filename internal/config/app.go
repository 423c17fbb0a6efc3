package config

type AppConfig struct {
	Server    ServerConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Archive   ArchiveConfig
	Notify    NotifyConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	schedCfg, err := LoadScheduler()
	if err != nil {
		return AppConfig{}, err
	}
	archiveCfg, err := LoadArchive()
	if err != nil {
		return AppConfig{}, err
	}
	notifyCfg, err := LoadNotify()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:    serverCfg,
		Log:       logCfg,
		Scheduler: schedCfg,
		Archive:   archiveCfg,
		Notify:    notifyCfg,
	}, nil
}
