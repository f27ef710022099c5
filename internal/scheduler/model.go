package scheduler

// 遗传算法参数
type Parameters struct {
	PopSize        int     `json:"popSize" validate:"required,min=2,max=1000"`  // 种群大小，上限还受配置约束
	Generations    int     `json:"generations" validate:"min=0"`                // 迭代次数
	CrossoverProb  float64 `json:"crossoverProb" validate:"min=0,max=1"`        // 交叉概率
	MutationProb   float64 `json:"mutationProb" validate:"min=0,max=1"`         // 变异概率
	Elitism        bool    `json:"elitism"`                                     // 是否保留精英
	EliteSize      int     `json:"eliteSize" validate:"min=0,ltefield=PopSize"` // 精英数量
	NrTables       int     `json:"nrTables" validate:"required,min=1"`          // 桌子数量
	TournamentSize int     `json:"tournamentSize" validate:"min=0"`             // 锦标赛选择的参赛个体数，0 表示使用默认值
	Selection      string  `json:"selection" validate:"required,oneof=tournament_selection fitness_proportionate_selection rank_selection"` // 选择算子
	Crossover      string  `json:"crossover" validate:"required,oneof=eager_breeder_crossover gbx_crossover twin_maker"` // 交叉算子
	Mutation       string  `json:"mutation" validate:"required,oneof=the_hop merge_and_split swap_mutation dream_team"` // 变异算子
	Seed           int64   `json:"seed"`                                        // 随机数种子，0 表示由调用方生成
}
