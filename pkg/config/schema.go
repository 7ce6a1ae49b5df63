package config

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "publishUrl": {"type": "string", "pattern": "^https?://"},
    "username": {"type": "string"},
    "password": {"type": "string"},
    "siteName": {"type": "string"},
    "sourcePath": {"type": "string"},
    "destinationPath": {"type": "string"},
    "parameters": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "boolean"]}
    },
    "enableDoNotDeleteRule": {"type": "boolean"},
    "enableAppOfflineRule": {"type": "boolean"},
    "showWhatIf": {"type": "boolean"},
    "retryAttempts": {"type": "integer", "minimum": 0},
    "retryInterval": {"type": "integer", "minimum": 0},
    "wrapAppOffline": {"type": "boolean"},
    "appOfflineHtmlTemplate": {"type": "string"},
    "appOfflineTemplateUrl": {"type": "string", "pattern": "^https?://"},
    "appOfflineTemplateHeaders": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "unstageFailure": {"enum": ["propagate", "warn"]},
    "tolerant": {"type": "boolean"},
    "engine": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "kind": {"enum": ["msdeploy", "local"]},
        "path": {"type": "string"},
        "version": {"type": "string"},
        "verbose": {"type": "boolean"},
        "localRoot": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "pushUrl": {"type": "string"},
        "job": {"type": "string"},
        "histogram": {"type": "boolean"}
      }
    }
  }
}`
