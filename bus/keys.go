package bus

import "strconv"

// Stream and map key names, exact per spec: observers of a running
// network depend on them.
func PrePrepare1Key() string { return "nbft:preprepare1" }
func PrePrepare2Key() string { return "nbft:preprepare2" }
func CommitKey() string      { return "nbft:commit" }
func OutPrepareKey() string  { return "nbft:outprepare" }

func InPrep1Key(gid int) string { return "nbft:inprep1:" + strconv.Itoa(gid) }
func InPrep2Key(gid int) string { return "nbft:inprep2:" + strconv.Itoa(gid) }

func AlertsKey(rid string, gid int) string {
	return "nbft:alerts:" + rid + ":" + strconv.Itoa(gid)
}

func RoundConfigKey(rid string) string { return "nbft:round:" + rid + ":config" }
func GroupsKey(rid string) string      { return "nbft:groups:" + rid }
func RepKey(rid string) string         { return "nbft:rep:" + rid }
func DecisionsKey(rid string) string   { return "nbft:decisions:" + rid }
func RepVotesKey(rid string) string    { return "nbft:rep_votes:" + rid }
