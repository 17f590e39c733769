package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"pokerclock.com/director/structures"
	"pokerclock.com/director/tournament"
)

var restLogger = log.With().Str("logger_name", "rest::rest").Logger()
var tournamentManager *tournament.Manager
var structureTemplates map[string]*structures.Structure

//
// APP error definition
//
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errStatus(err error) int {
	switch err.(type) {
	case tournament.TournamentNotFoundError, tournament.PlayerNotFoundError:
		return http.StatusNotFound
	case tournament.InvalidRequestError:
		return http.StatusBadRequest
	case tournament.TableFullError, tournament.SeatConflictError,
		tournament.TableNotEmptyError, tournament.NotEnoughTablesError,
		tournament.NoSeatAvailableError, tournament.RebuyNotAllowedError:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func reportError(c *gin.Context, err error) {
	status := errStatus(err)
	c.IndentedJSON(status, appError{Code: status, Message: err.Error()})
}

// RunRestServer runs the director REST API. Blocks.
func RunRestServer(portNo uint, manager *tournament.Manager, templates map[string]*structures.Structure) {
	r := initRouter(manager, templates)
	r.Run(fmt.Sprintf(":%d", portNo))
}

func initRouter(manager *tournament.Manager, templates map[string]*structures.Structure) *gin.Engine {
	tournamentManager = manager
	structureTemplates = templates

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ready", checkReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/structures", listStructures)

	r.POST("/tournaments", createTournament)
	r.GET("/tournaments", listTournaments)
	r.GET("/tournaments/:code", getTournament)
	r.DELETE("/tournaments/:code", deleteTournament)

	r.POST("/tournaments/:code/players", registerPlayer)
	r.POST("/tournaments/:code/players/:playerId/chips", updateChips)
	r.POST("/tournaments/:code/players/:playerId/rebuy", rebuy)
	r.POST("/tournaments/:code/players/:playerId/addon", addon)
	r.POST("/tournaments/:code/players/:playerId/eliminate", eliminatePlayer)
	r.POST("/tournaments/:code/players/:playerId/seat", movePlayer)

	r.POST("/tournaments/:code/tables", addTable)
	r.DELETE("/tournaments/:code/tables/:tableNo", removeTable)
	r.POST("/tournaments/:code/tables/:tableNo/break", breakTable)
	r.POST("/tournaments/:code/balance", balanceTables)
	r.POST("/tournaments/:code/redraw", redrawSeating)

	r.POST("/tournaments/:code/clock/pause", pauseClock)
	r.POST("/tournaments/:code/clock/resume", resumeClock)
	r.POST("/tournaments/:code/clock/level", setLevel)
	r.POST("/tournaments/:code/clock/next", nextLevel)
	r.POST("/tournaments/:code/clock/previous", previousLevel)

	r.GET("/tournaments/:code/payouts", getPayouts)
	r.POST("/tournaments/:code/payouts", recalcPayouts)
	r.POST("/tournaments/:code/announcements", announce)
	return r
}

func checkReady(c *gin.Context) {
	type resp struct {
		Status string `json:"status"`
	}
	c.JSON(http.StatusOK, resp{Status: "OK"})
}

func listStructures(c *gin.Context) {
	names := make([]string, 0, len(structureTemplates))
	for name := range structureTemplates {
		names = append(names, name)
	}
	c.JSON(http.StatusOK, gin.H{"structures": names})
}

func getTournamentFromPath(c *gin.Context) (*tournament.Tournament, bool) {
	code := c.Param("code")
	t, err := tournamentManager.GetTournament(code)
	if err != nil {
		reportError(c, err)
		return nil, false
	}
	return t, true
}

type createTournamentRequest struct {
	tournament.Config
	Structure string `json:"structure"`
}

func createTournament(c *gin.Context) {
	var req createTournamentRequest
	err := c.BindJSON(&req)
	if err != nil {
		restLogger.Error().Msgf("Failed to parse tournament configuration. Error: %v", err)
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}

	config := req.Config
	if req.Structure != "" {
		template, exists := structureTemplates[req.Structure]
		if !exists {
			reportError(c, tournament.InvalidRequestError{
				Msg: fmt.Sprintf("Unknown blind structure [%s]", req.Structure)})
			return
		}
		config.Levels = template.ToBlindLevels()
		if config.StartingChips == 0 {
			config.StartingChips = template.StartingChips
		}
	}

	t, err := tournamentManager.CreateTournament(config)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

func listTournaments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tournaments": tournamentManager.ActiveCodes()})
}

func getTournament(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

func deleteTournament(c *gin.Context) {
	err := tournamentManager.DeleteTournament(c.Param("code"))
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func registerPlayer(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type registerRequest struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	var req registerRequest
	err := c.BindJSON(&req)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}
	player, err := t.RegisterPlayer(req.Name, req.Email)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func updateChips(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type chipsRequest struct {
		Chips float64 `json:"chips"`
	}
	var req chipsRequest
	err := c.BindJSON(&req)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}
	err = t.UpdateChips(c.Param("playerId"), req.Chips)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func rebuy(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	err := t.Rebuy(c.Param("playerId"))
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func addon(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	err := t.Addon(c.Param("playerId"))
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func eliminatePlayer(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	player, err := t.EliminatePlayer(c.Param("playerId"))
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func movePlayer(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type seatRequest struct {
		TableNo uint32 `json:"tableNo"`
		SeatNo  uint32 `json:"seatNo"`
	}
	var req seatRequest
	err := c.BindJSON(&req)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}
	err = t.MovePlayer(c.Param("playerId"), req.TableNo, req.SeatNo)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func addTable(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type tableRequest struct {
		MaxSeats uint32 `json:"maxSeats"`
	}
	var req tableRequest
	// Body is optional; default capacity applies.
	_ = c.ShouldBindJSON(&req)
	table := t.AddTable(req.MaxSeats)
	c.JSON(http.StatusOK, table)
}

func parseTableNo(c *gin.Context) (uint32, bool) {
	tableNoStr := c.Param("tableNo")
	tableNo, err := strconv.ParseUint(tableNoStr, 10, 32)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{
			Msg: fmt.Sprintf("Failed to parse table number [%s]", tableNoStr)})
		return 0, false
	}
	return uint32(tableNo), true
}

func removeTable(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	tableNo, ok := parseTableNo(c)
	if !ok {
		return
	}
	err := t.RemoveTable(tableNo)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func breakTable(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	tableNo, ok := parseTableNo(c)
	if !ok {
		return
	}
	moves, err := t.DissolveTable(tableNo)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves})
}

func balanceTables(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": t.BalanceTables()})
}

func redrawSeating(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": t.RedrawSeating()})
}

func pauseClock(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	t.PauseClock()
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func resumeClock(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	t.ResumeClock()
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func setLevel(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type levelRequest struct {
		Level int `json:"level"`
	}
	var req levelRequest
	err := c.BindJSON(&req)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}
	err = t.SetLevel(req.Level)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func nextLevel(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	err := t.NextLevel()
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func previousLevel(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	err := t.PreviousLevel()
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func getPayouts(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	snapshot := t.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"prizePool": snapshot.State.PrizePool,
		"payouts":   snapshot.State.Payouts,
	})
}

func recalcPayouts(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type payoutRequest struct {
		Places int `json:"places"`
	}
	var req payoutRequest
	// Body is optional; zero places keeps the current paid places.
	_ = c.ShouldBindJSON(&req)
	c.JSON(http.StatusOK, gin.H{"payouts": t.RecalculatePayouts(req.Places)})
}

func announce(c *gin.Context) {
	t, ok := getTournamentFromPath(c)
	if !ok {
		return
	}
	type announceRequest struct {
		Message string `json:"message"`
	}
	var req announceRequest
	err := c.BindJSON(&req)
	if err != nil {
		reportError(c, tournament.InvalidRequestError{Msg: err.Error()})
		return
	}
	err = t.Announce(req.Message)
	if err != nil {
		reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
