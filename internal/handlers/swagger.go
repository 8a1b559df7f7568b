package handlers

// @title Activity Log API
// @version 1.0
// @description Single-endpoint backend for a weekly activity tracker: reads and edits the activity log and requests AI-written insights.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /

// @tag.name actions
// @tag.description Action dispatch endpoint

// @tag.name health
// @tag.description Service status
