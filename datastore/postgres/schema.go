package postgres

const (
	schemaTasks = `
		CREATE TABLE IF NOT EXISTS automation_tasks (
			chain_key       varchar(255) not null,
			task_id         varchar(66) not null,
			provided_id     varchar(255) not null,
			owner           varchar(255) not null,
			route           varchar(64) not null,
			state           varchar(64) not null,
			execution_time  bigint not null,
			block_hash      varchar(66) not null default '',
			error           text not null default '',
			updated_at      timestamptz not null,

			PRIMARY KEY(chain_key, task_id)
		);`

	queryTaskByKey = `
		SELECT chain_key, task_id, provided_id, owner, route, state, execution_time, block_hash, error, updated_at
		FROM automation_tasks
		WHERE chain_key = $1 AND task_id = $2`
	queryAllTasks = `
		SELECT chain_key, task_id, provided_id, owner, route, state, execution_time, block_hash, error, updated_at
		FROM automation_tasks
		ORDER BY chain_key, task_id`
	queryAddTask = `
		INSERT INTO automation_tasks
			(chain_key, task_id, provided_id, owner, route, state, execution_time, block_hash, error, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	queryUpsertTask = queryAddTask + `
		ON CONFLICT ON CONSTRAINT automation_tasks_pkey
			DO UPDATE SET
				provided_id = excluded.provided_id,
				owner = excluded.owner,
				route = excluded.route,
				state = excluded.state,
				execution_time = excluded.execution_time,
				block_hash = excluded.block_hash,
				error = excluded.error,
				updated_at = excluded.updated_at`
)
