package config

import (
	"os"
	"strconv"
)

const DATABASE_TYPE = "CARELINE_DATABASE_TYPE"
const DATABASE_URL = "CARELINE_DATABASE_URL"
const DATABASE_SQLLITE_FILE_NAME = "CARELINE_DATABASE_SQLLITE_FILE_NAME"
const SERVER_WEB_PORT = "CARELINE_SERVER_WEB_PORT"
const RESUME_CHECK_INTERVAL = "CARELINE_RESUME_CHECK_INTERVAL"
const RESUME_BATCH_SIZE = "CARELINE_RESUME_BATCH_SIZE"   //number of waiting executions pulled from the database per sweep
const RESUME_WORKER_SIZE = "CARELINE_RESUME_WORKER_SIZE" //number of workers resuming executions in parallel
const STEP_TIMEOUT_SECONDS = "CARELINE_STEP_TIMEOUT_SECONDS"
const LINE_API_URL = "CARELINE_LINE_API_URL"
const LINE_CHANNEL_TOKEN = "CARELINE_LINE_CHANNEL_TOKEN"

const DATABASE_TYPE_POSTGRES = "POSTGRES"
const DATABASE_TYPE_MYSQL = "MYSQL"
const DATABASE_TYPE_SQLLITE = "SQLLITE"

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	val := os.Getenv(settingKey)
	if val != "" {
		return val
	}
	if settingKey == RESUME_CHECK_INTERVAL {
		return "15s"
	}
	if settingKey == RESUME_BATCH_SIZE {
		return "20"
	}
	if settingKey == RESUME_WORKER_SIZE {
		return "5"
	}
	if settingKey == STEP_TIMEOUT_SECONDS {
		return "30"
	}
	if settingKey == SERVER_WEB_PORT {
		return "8080"
	}
	if settingKey == LINE_API_URL {
		return "https://api.line.me"
	}
	if settingKey == DATABASE_SQLLITE_FILE_NAME {
		return "./careline.db"
	}
	return ""
}
